package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/chatrelay/internal/ratelimit/store"
)

// Store types.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// FactoryConfig holds configuration for creating rate limiters.
type FactoryConfig struct {
	// Algorithm is the rate limiting algorithm to use.
	Algorithm Algorithm

	// Requests is the maximum number of requests allowed in the window.
	Requests int

	// Window is the time window for the rate limit.
	Window time.Duration

	// StoreType selects where fixed window counters live:
	// "memory" (single instance) or "redis" (shared by all replicas).
	StoreType string

	// Redis configuration, used when StoreType is "redis".
	Redis *store.RedisConfig

	// Logger for the rate limiter.
	Logger *zap.Logger
}

// DefaultFactoryConfig returns a FactoryConfig with default values.
func DefaultFactoryConfig() *FactoryConfig {
	return &FactoryConfig{
		Algorithm: AlgorithmFixedWindow,
		Requests:  30,
		Window:    time.Minute,
		StoreType: StoreMemory,
	}
}

// NewLimiter creates a new rate limiter based on the configuration.
func NewLimiter(ctx context.Context, cfg *FactoryConfig) (Limiter, error) {
	if cfg == nil {
		cfg = DefaultFactoryConfig()
	}
	if cfg.Requests < 1 {
		return nil, fmt.Errorf("rate limit requests must be positive, got %d", cfg.Requests)
	}
	if cfg.Window <= 0 {
		return nil, errors.New("rate limit window must be positive")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Algorithm {
	case AlgorithmFixedWindow, "":
		s, err := newStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return NewFixedWindowLimiter(s, cfg.Requests, cfg.Window, logger), nil

	case AlgorithmTokenBucket:
		if cfg.StoreType != StoreMemory && cfg.StoreType != "" {
			return nil, fmt.Errorf("algorithm %s only supports the memory store", cfg.Algorithm)
		}
		return NewTokenBucketLimiter(cfg.Requests, cfg.Window, logger), nil

	default:
		return nil, fmt.Errorf("unknown algorithm: %s", cfg.Algorithm)
	}
}

func newStore(ctx context.Context, cfg *FactoryConfig, logger *zap.Logger) (store.Store, error) {
	switch cfg.StoreType {
	case StoreMemory, "":
		return store.NewMemoryStore(cfg.Window), nil
	case StoreRedis:
		redisCfg := cfg.Redis
		if redisCfg == nil {
			redisCfg = store.DefaultRedisConfig()
		}
		if redisCfg.Logger == nil {
			redisCfg.Logger = logger
		}
		s, err := store.NewRedisStore(ctx, redisCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.StoreType)
	}
}
