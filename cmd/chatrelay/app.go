package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/chatrelay/internal/circuitbreaker"
	"github.com/vyrodovalexey/chatrelay/internal/completion"
	"github.com/vyrodovalexey/chatrelay/internal/config"
	"github.com/vyrodovalexey/chatrelay/internal/gateway"
	"github.com/vyrodovalexey/chatrelay/internal/health"
	"github.com/vyrodovalexey/chatrelay/internal/observability"
	"github.com/vyrodovalexey/chatrelay/internal/ratelimit"
	"github.com/vyrodovalexey/chatrelay/internal/ratelimit/store"
	"github.com/vyrodovalexey/chatrelay/internal/retry"
)

// application holds all application components.
type application struct {
	config        *config.Config
	logger        *zap.Logger
	metrics       *observability.Metrics
	tracer        *observability.Tracer
	client        *completion.Client
	limiter       ratelimit.Limiter
	breaker       *circuitbreaker.Breaker
	healthChecker *health.Checker
	server        *gateway.Server
	metricsServer *http.Server
}

// newApplication builds every component from cfg. Nothing is started.
func newApplication(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	app.metrics = observability.NewMetrics(observability.DefaultNamespace)
	app.metrics.SetBuildInfo(version, gitCommit, buildTime)
	ns := app.metrics.Namespace()
	reg := app.metrics.Registerer()

	tracer, err := initTracer(ctx, cfg.Observability.Tracing, logger)
	if err != nil {
		return nil, err
	}
	app.tracer = tracer

	app.healthChecker = health.NewChecker(version,
		health.WithLogger(logger),
		health.WithMetrics(health.NewMetrics(ns, reg)),
	)

	var provider completion.Provider = completion.NewOpenAIProvider(completion.OpenAIConfig{
		APIKey:  cfg.Upstream.APIKey,
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout.Duration(),
	})

	if cfg.CircuitBreaker.Enabled {
		guarded := completion.NewBreakerProvider(provider,
			circuitbreaker.Config{
				Name:      "upstream",
				Threshold: cfg.CircuitBreaker.Threshold,
				Timeout:   cfg.CircuitBreaker.Timeout.Duration(),
			},
			circuitbreaker.WithLogger(logger),
			circuitbreaker.WithMetrics(circuitbreaker.NewMetrics(ns, reg)),
		)
		app.breaker = guarded.Breaker()
		app.healthChecker.RegisterCheck("circuit_breaker", health.BreakerCheck(app.breaker.IsOpen))
		provider = guarded
	}

	app.client = completion.NewClient(provider, completionParameters(cfg.Upstream),
		completion.WithLogger(logger),
		completion.WithMetrics(completion.NewMetrics(ns, reg)),
		completion.WithRetryConfig(retry.Config{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay.Duration(),
			MaxDelay:     cfg.Retry.MaxDelay.Duration(),
		}),
	)

	if cfg.RateLimit.Enabled {
		limiter, err := initRateLimiter(ctx, cfg.RateLimit, ns, app.metrics, logger)
		if err != nil {
			_ = app.tracer.Shutdown(ctx)
			return nil, err
		}
		app.limiter = limiter
		if p, ok := limiter.(ratelimit.Pinger); ok {
			app.healthChecker.RegisterCheck("ratelimit_store", health.PingCheck(p.Ping))
		}
	}

	server, err := gateway.NewServer(&gateway.ServerConfig{
		Port:               cfg.Server.Port,
		Address:            cfg.Server.Address,
		ReadTimeout:        cfg.Server.ReadTimeout.Duration(),
		WriteTimeout:       cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:        2 * time.Minute,
		MaxHeaderBytes:     1 << 20,
		MaxRequestBodySize: cfg.Server.MaxBodySize,
		TrustedProxies:     cfg.Server.TrustedProxies,
	}, logger)
	if err != nil {
		app.closeResources(ctx)
		return nil, err
	}

	server.Setup(gateway.RouterConfig{
		Completer:    app.client,
		Checker:      app.healthChecker,
		Limiter:      app.limiter,
		Metrics:      app.metrics,
		AllowOrigins: cfg.CORS.AllowOrigins,
		ServiceName:  cfg.Observability.Tracing.ServiceName,
		Logger:       logger,
	})
	app.server = server

	if cfg.Observability.Metrics.Enabled {
		app.metricsServer = createMetricsServer(
			cfg.Observability.Metrics.Port,
			cfg.Observability.Metrics.Path,
			app.metrics,
			app.healthChecker,
		)
	}

	logger.Info("application initialized",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.String("rate_limit_algorithm", cfg.RateLimit.Algorithm),
		zap.String("rate_limit_store", cfg.RateLimit.Store),
		zap.Bool("circuit_breaker", cfg.CircuitBreaker.Enabled),
		zap.Bool("tracing", cfg.Observability.Tracing.Enabled),
		zap.Bool("metrics", cfg.Observability.Metrics.Enabled),
		zap.Int("retry_max_attempts", cfg.Retry.MaxAttempts),
		zap.Duration("retry_initial_delay", cfg.Retry.InitialDelay.Duration()),
	)

	return app, nil
}

// completionParameters builds the immutable per-call parameters.
func completionParameters(cfg config.UpstreamConfig) completion.Parameters {
	return completion.Parameters{
		SystemPrompt: cfg.SystemPrompt,
		Model:        cfg.Model,
		MaxTokens:    cfg.MaxTokens,
		Temperature:  float32(cfg.Temperature),
	}
}

// initTracer initializes the tracer. A disabled tracer exports nothing.
func initTracer(ctx context.Context, cfg config.TracingConfig, logger *zap.Logger) (*observability.Tracer, error) {
	tracer, err := observability.NewTracer(ctx, observability.TracerConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplingRate:   cfg.SamplingRate,
		Enabled:        cfg.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	if cfg.Enabled {
		logger.Info("tracing enabled",
			zap.String("endpoint", cfg.OTLPEndpoint),
			zap.Float64("sampling_rate", cfg.SamplingRate),
		)
	}
	return tracer, nil
}

// initRateLimiter creates the per-client limiter and, for the redis
// store, connects to Redis.
func initRateLimiter(
	ctx context.Context,
	cfg config.RateLimitConfig,
	namespace string,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (ratelimit.Limiter, error) {
	factoryCfg := &ratelimit.FactoryConfig{
		Algorithm: ratelimit.Algorithm(cfg.Algorithm),
		Requests:  cfg.Requests,
		Window:    cfg.Window.Duration(),
		StoreType: cfg.Store,
		Logger:    logger,
	}

	if cfg.Store == ratelimit.StoreRedis {
		redisCfg := store.DefaultRedisConfig()
		redisCfg.Address = cfg.Redis.Address
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		if cfg.Redis.Prefix != "" {
			redisCfg.Prefix = cfg.Redis.Prefix
		}
		redisCfg.Logger = logger
		redisCfg.Metrics = store.NewMetrics(namespace, metrics.Registerer())
		factoryCfg.Redis = redisCfg
	}

	limiter, err := ratelimit.NewLimiter(ctx, factoryCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	logger.Info("rate limiting enabled",
		zap.Int("requests", cfg.Requests),
		zap.Duration("window", cfg.Window.Duration()),
	)
	return limiter, nil
}

// closeResources releases the tracer and the limiter store.
func (a *application) closeResources(ctx context.Context) {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Error("failed to shutdown tracer", zap.Error(err))
		}
	}
	if a.limiter != nil {
		if err := a.limiter.Close(); err != nil {
			a.logger.Error("failed to close rate limiter", zap.Error(err))
		}
	}
}
