package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/chatrelay/internal/retry"
)

// incrementWithExpiryScript increments a counter and sets its TTL only
// when the increment created it.
// KEYS[1] = key
// ARGV[1] = delta
// ARGV[2] = expiration in milliseconds
var incrementWithExpiryScript = redis.NewScript(`
	local current = redis.call('INCRBY', KEYS[1], ARGV[1])
	if current == tonumber(ARGV[1]) then
		redis.call('PEXPIRE', KEYS[1], ARGV[2])
	end
	return current
`)

// RedisConfig holds configuration for the Redis store.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Prefix   string

	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Connect controls how the initial PING is retried.
	Connect retry.Config

	Logger  *zap.Logger
	Metrics *Metrics
}

// DefaultRedisConfig returns a RedisConfig with default values.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Address:      "localhost:6379",
		Prefix:       "chatrelay:ratelimit:",
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		Connect: retry.Config{
			MaxAttempts:  5,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     2 * time.Second,
		},
	}
}

// RedisStore implements Store on Redis so that every replica shares
// the same counters.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	logger  *zap.Logger
	metrics *Metrics

	mu     sync.Mutex
	closed bool
}

// NewRedisStore connects to Redis, retrying the initial PING with
// exponential backoff.
func NewRedisStore(ctx context.Context, cfg *RedisConfig) (*RedisStore, error) {
	if cfg == nil {
		cfg = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	s := NewRedisStoreFromClient(client, cfg.Prefix, cfg.Logger, cfg.Metrics)

	err := retry.Do(ctx, &cfg.Connect, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}, &retry.Options{
		OnRetry: func(attempt int, err error, wait time.Duration) {
			s.metrics.retried()
			s.logger.Warn("redis connection failed, retrying",
				zap.String("address", cfg.Address),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", wait),
				zap.Error(err),
			)
		},
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Address, err)
	}

	s.logger.Info("connected to redis", zap.String("address", cfg.Address))
	return s, nil
}

// NewRedisStoreFromClient wraps an existing client without connecting.
func NewRedisStoreFromClient(client *redis.Client, prefix string, logger *zap.Logger, metrics *Metrics) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		client:  client,
		prefix:  prefix,
		logger:  logger,
		metrics: metrics,
	}
}

func (s *RedisStore) prefixKey(key string) string {
	return s.prefix + key
}

// IncrementWithExpiry implements Store using a Lua script for atomicity.
func (s *RedisStore) IncrementWithExpiry(
	ctx context.Context,
	key string,
	delta int64,
	expiration time.Duration,
) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error before redis increment: %w", err)
	}

	start := time.Now()
	expirationMs := expiration.Milliseconds()
	if expirationMs < 1 {
		expirationMs = 1
	}

	val, err := incrementWithExpiryScript.Run(ctx, s.client, []string{s.prefixKey(key)}, delta, expirationMs).Int64()
	s.metrics.observe("increment", start, err)
	if err != nil {
		return 0, fmt.Errorf("redis increment error: %w", err)
	}

	return val, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error before redis del: %w", err)
	}

	start := time.Now()
	err := s.client.Del(ctx, s.prefixKey(key)).Err()
	s.metrics.observe("delete", start, err)
	if err != nil {
		return fmt.Errorf("redis del error: %w", err)
	}
	return nil
}

// Ping implements Store.
func (s *RedisStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.client.Ping(ctx).Err()
	s.metrics.observe("ping", start, err)
	if err != nil {
		return fmt.Errorf("redis ping error: %w", err)
	}
	return nil
}

// Close implements Store. It is safe to call more than once.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}
