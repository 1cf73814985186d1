package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/chatrelay/internal/ratelimit/store"
)

func TestDefaultFactoryConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultFactoryConfig()

	assert.Equal(t, AlgorithmFixedWindow, cfg.Algorithm)
	assert.Equal(t, 30, cfg.Requests)
	assert.Equal(t, time.Minute, cfg.Window)
	assert.Equal(t, StoreMemory, cfg.StoreType)
}

func TestNewLimiter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     *FactoryConfig
		check   func(t *testing.T, l Limiter)
		wantErr string
	}{
		{
			name: "nil config",
			cfg:  nil,
			check: func(t *testing.T, l Limiter) {
				assert.IsType(t, &FixedWindowLimiter{}, l)
			},
		},
		{
			name: "fixed window memory",
			cfg:  &FactoryConfig{Algorithm: AlgorithmFixedWindow, Requests: 5, Window: time.Second, StoreType: StoreMemory},
			check: func(t *testing.T, l Limiter) {
				assert.IsType(t, &FixedWindowLimiter{}, l)
				assert.Equal(t, 5, l.Limit().Requests)
			},
		},
		{
			name: "token bucket",
			cfg:  &FactoryConfig{Algorithm: AlgorithmTokenBucket, Requests: 5, Window: time.Second},
			check: func(t *testing.T, l Limiter) {
				assert.IsType(t, &TokenBucketLimiter{}, l)
			},
		},
		{
			name:    "token bucket with redis",
			cfg:     &FactoryConfig{Algorithm: AlgorithmTokenBucket, Requests: 5, Window: time.Second, StoreType: StoreRedis},
			wantErr: "only supports the memory store",
		},
		{
			name:    "unknown algorithm",
			cfg:     &FactoryConfig{Algorithm: "leaky_bucket", Requests: 5, Window: time.Second},
			wantErr: "unknown algorithm",
		},
		{
			name:    "unknown store",
			cfg:     &FactoryConfig{Algorithm: AlgorithmFixedWindow, Requests: 5, Window: time.Second, StoreType: "etcd"},
			wantErr: "unknown store type",
		},
		{
			name:    "zero requests",
			cfg:     &FactoryConfig{Requests: 0, Window: time.Second},
			wantErr: "must be positive",
		},
		{
			name:    "zero window",
			cfg:     &FactoryConfig{Requests: 1},
			wantErr: "window must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l, err := NewLimiter(context.Background(), tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = l.Close() })
			tt.check(t, l)
		})
	}
}

func TestNewLimiter_Redis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	redisCfg := store.DefaultRedisConfig()
	redisCfg.Address = mr.Addr()

	l, err := NewLimiter(context.Background(), &FactoryConfig{
		Algorithm: AlgorithmFixedWindow,
		Requests:  2,
		Window:    time.Minute,
		StoreType: StoreRedis,
		Redis:     redisCfg,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	pinger, ok := l.(Pinger)
	require.True(t, ok)
	assert.NoError(t, pinger.Ping(context.Background()))

	res, err := l.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestNoopLimiter(t *testing.T) {
	t.Parallel()

	l := NewNoopLimiter()
	res, err := l.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.NoError(t, l.Reset(context.Background(), "k"))
	assert.Equal(t, Limit{}, l.Limit())
	assert.NoError(t, l.Close())
}
