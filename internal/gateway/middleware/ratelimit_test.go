package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/chatrelay/internal/observability"
	"github.com/vyrodovalexey/chatrelay/internal/ratelimit"
	"github.com/vyrodovalexey/chatrelay/internal/ratelimit/store"
)

func newRateLimitRouter(config RateLimitConfig) *gin.Engine {
	router := gin.New()
	router.Use(RateLimitWithConfig(config))
	router.POST("/chat", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"reply": "hi"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRateLimit_Allowed(t *testing.T) {
	gin.SetMode(gin.TestMode)

	now := time.Unix(1_700_000_000, 0)
	limiter := &MockLimiter{}
	router := newRateLimitRouter(RateLimitConfig{
		Limiter: limiter,
		now:     func() time.Time { return now },
	})

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "30", w.Header().Get(HeaderRateLimitLimit))
	assert.Equal(t, "29", w.Header().Get(HeaderRateLimitRemaining))
	assert.Equal(t, strconv.FormatInt(now.Add(time.Minute).Unix(), 10), w.Header().Get(HeaderRateLimitReset))
	assert.Empty(t, w.Header().Get(HeaderRetryAfter))
	assert.Equal(t, []string{"203.0.113.7"}, limiter.Keys())
}

func TestRateLimit_Rejected(t *testing.T) {
	gin.SetMode(gin.TestMode)

	metrics := observability.NewMetrics("test")
	core, logs := observer.New(zap.DebugLevel)
	limiter := &MockLimiter{
		allowFunc: func(context.Context, string) (*ratelimit.Result, error) {
			return &ratelimit.Result{
				Allowed:    false,
				Limit:      30,
				Remaining:  0,
				ResetAfter: 12 * time.Second,
				RetryAfter: 11500 * time.Millisecond,
			}, nil
		},
	}
	router := newRateLimitRouter(RateLimitConfig{
		Limiter: limiter,
		Logger:  zap.New(core),
		Metrics: metrics,
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"reply":"Too many requests, please try again later."}`, w.Body.String())
	assert.Equal(t, "12", w.Header().Get(HeaderRetryAfter))
	assert.Equal(t, "0", w.Header().Get(HeaderRateLimitRemaining))
	assert.Equal(t, 1, logs.FilterMessage("rate limit exceeded").Len())
	assert.Equal(t, float64(1), metricValue(t, metrics.Registry(), "test_rate_limit_hits_total",
		map[string]string{"route": "/chat"}))
}

func TestRateLimit_FailsOpenOnLimiterError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zap.DebugLevel)
	limiter := &MockLimiter{
		allowFunc: func(context.Context, string) (*ratelimit.Result, error) {
			return nil, errors.New("redis: connection refused")
		},
	}
	router := newRateLimitRouter(RateLimitConfig{Limiter: limiter, Logger: zap.New(core)})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(HeaderRateLimitLimit))
	assert.Equal(t, 1, logs.FilterMessage("rate limit check failed").Len())
}

func TestRateLimit_SkipsHealthAndPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := &MockLimiter{}
	router := newRateLimitRouter(RateLimitConfig{Limiter: limiter})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodOptions, "/chat", nil))

	assert.Empty(t, limiter.Keys())
}

func TestRateLimit_NoopLimiterSetsNoHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := newRateLimitRouter(RateLimitConfig{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(HeaderRateLimitLimit))
}

func TestRateLimit_FixedWindowQuotaPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	s := store.NewMemoryStore(time.Minute)
	limiter := ratelimit.NewFixedWindowLimiter(s, 2, time.Hour, zap.NewNop())
	t.Cleanup(func() { _ = limiter.Close() })

	router := newRateLimitRouter(RateLimitConfig{Limiter: limiter})

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/chat", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("198.51.100.1:1000"))
	assert.Equal(t, http.StatusOK, send("198.51.100.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.1:1002"))
	assert.Equal(t, http.StatusOK, send("198.51.100.2:1000"), "quota is per client")
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := &MockLimiter{}
	router := newRateLimitRouter(RateLimitConfig{
		Limiter: limiter,
		KeyFunc: func(c *gin.Context) string { return c.GetHeader("X-Client") },
	})

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.Header.Set("X-Client", "tenant-a")
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, []string{"tenant-a"}, limiter.Keys())
}

func TestRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int
	}{
		{0, 1},
		{-time.Second, 1},
		{200 * time.Millisecond, 1},
		{time.Second, 1},
		{1001 * time.Millisecond, 2},
		{59 * time.Second, 59},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, retryAfterSeconds(tt.in), tt.in.String())
	}
}
