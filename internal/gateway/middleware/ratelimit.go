package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/chatrelay/internal/observability"
	"github.com/vyrodovalexey/chatrelay/internal/ratelimit"
)

// KeyFunc extracts the rate limit key from the request.
type KeyFunc func(c *gin.Context) string

// ClientIPKey keys the quota by client address. gin resolves it from
// forwarding headers only for trusted proxies.
func ClientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	// Limiter is the rate limiter to use.
	Limiter ratelimit.Limiter

	// KeyFunc extracts the rate limit key. Defaults to ClientIPKey.
	KeyFunc KeyFunc

	// Logger for logging rate limit events.
	Logger *zap.Logger

	// Metrics counts rejected requests. Optional.
	Metrics *observability.Metrics

	// SkipPaths is a list of paths to skip rate limiting. Health
	// endpoints are always skipped.
	SkipPaths []string

	now func() time.Time
}

// RateLimit returns a middleware that applies limiter per client IP.
func RateLimit(limiter ratelimit.Limiter, logger *zap.Logger) gin.HandlerFunc {
	return RateLimitWithConfig(RateLimitConfig{
		Limiter: limiter,
		Logger:  logger,
	})
}

// RateLimitWithConfig returns a rate limit middleware with custom
// configuration. Requests over the quota are answered 429 with
// ReplyTooManyRequests. Limiter errors let the request through.
func RateLimitWithConfig(config RateLimitConfig) gin.HandlerFunc {
	if config.Limiter == nil {
		config.Limiter = ratelimit.NewNoopLimiter()
	}
	if config.KeyFunc == nil {
		config.KeyFunc = ClientIPKey
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.now == nil {
		config.now = time.Now
	}

	skipPaths := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if skipPaths[path] || isHealthCheckPath(path) || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		key := config.KeyFunc(c)

		result, err := config.Limiter.Allow(c.Request.Context(), key)
		if err != nil {
			config.Logger.Error("rate limit check failed",
				zap.String("key", key),
				zap.String("requestID", GetRequestID(c)),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if result.Limit > 0 {
			c.Header(HeaderRateLimitLimit, strconv.Itoa(result.Limit))
			c.Header(HeaderRateLimitRemaining, strconv.Itoa(result.Remaining))
			c.Header(HeaderRateLimitReset, strconv.FormatInt(config.now().Add(result.ResetAfter).Unix(), 10))
		}

		if !result.Allowed {
			c.Header(HeaderRetryAfter, strconv.Itoa(retryAfterSeconds(result.RetryAfter)))

			config.Logger.Warn("rate limit exceeded",
				zap.String("key", key),
				zap.String("requestID", GetRequestID(c)),
				zap.Int("limit", result.Limit),
				zap.Duration("retryAfter", result.RetryAfter),
			)

			if config.Metrics != nil {
				config.Metrics.RecordRateLimitHit(routeOf(c))
			}

			c.AbortWithStatusJSON(http.StatusTooManyRequests, reply(ReplyTooManyRequests))
			return
		}

		c.Next()
	}
}

// retryAfterSeconds rounds up to whole seconds, at least one.
func retryAfterSeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}
