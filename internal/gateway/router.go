package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/chatrelay/internal/gateway/middleware"
	"github.com/vyrodovalexey/chatrelay/internal/health"
	"github.com/vyrodovalexey/chatrelay/internal/observability"
	"github.com/vyrodovalexey/chatrelay/internal/ratelimit"
)

// RouterConfig holds the collaborators of the gateway routes.
type RouterConfig struct {
	// Completer answers chat messages. Required.
	Completer Completer

	// Checker serves /health and /ready. Optional.
	Checker *health.Checker

	// Limiter enforces the per-client quota. Nil disables it.
	Limiter ratelimit.Limiter

	// Metrics records request and rate limit metrics. Optional.
	Metrics *observability.Metrics

	// AllowOrigins is the CORS allow-list. Empty allows all origins.
	AllowOrigins []string

	// ServiceName names the tracer used for server spans.
	ServiceName string

	Logger *zap.Logger
}

// Setup installs the middleware chain and the routes.
func (s *Server) Setup(cfg RouterConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = s.logger
	}

	chain := []gin.HandlerFunc{
		middleware.LoggingWithConfig(middleware.LoggingConfig{
			Logger:          logger,
			SkipHealthCheck: true,
		}),
		middleware.Recovery(logger),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.ServiceName,
			SkipPaths:   []string{"/health", "/ready"},
		}),
	}
	if cfg.Metrics != nil {
		chain = append(chain, middleware.Metrics(cfg.Metrics))
	}
	chain = append(chain, middleware.CORS(cfg.AllowOrigins...))
	if cfg.Limiter != nil {
		chain = append(chain, middleware.RateLimitWithConfig(middleware.RateLimitConfig{
			Limiter: cfg.Limiter,
			Logger:  logger,
			Metrics: cfg.Metrics,
		}))
	}
	s.Use(chain...)

	chat := NewChatHandler(cfg.Completer, logger)
	s.engine.POST(chatRoute, chat.Handle)

	if cfg.Checker != nil {
		s.engine.GET("/health", gin.WrapF(cfg.Checker.HealthHandler()))
		s.engine.GET("/ready", gin.WrapF(cfg.Checker.ReadinessHandler()))
	}

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	})
}
