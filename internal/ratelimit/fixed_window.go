package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/chatrelay/internal/ratelimit/store"
)

// expiryBuffer keeps a window counter alive slightly past the window
// end to tolerate clock skew between replicas.
const expiryBuffer = time.Second

// FixedWindowLimiter implements the fixed window rate limiting algorithm.
// Time is divided into windows aligned to the Unix epoch and each key
// may make at most limit requests per window.
type FixedWindowLimiter struct {
	store  store.Store
	limit  int
	window time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewFixedWindowLimiter creates a new fixed window rate limiter.
func NewFixedWindowLimiter(s store.Store, limit int, window time.Duration, logger *zap.Logger) *FixedWindowLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FixedWindowLimiter{
		store:  s,
		limit:  limit,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// windowStart returns the start time of the window containing t.
func (l *FixedWindowLimiter) windowStart(t time.Time) time.Time {
	windowNanos := l.window.Nanoseconds()
	return time.Unix(0, (t.UnixNano()/windowNanos)*windowNanos)
}

func windowKey(key string, start time.Time) string {
	return fmt.Sprintf("%s:fw:%d", key, start.UnixNano())
}

// Allow implements Limiter. The counter is incremented before the
// comparison so that concurrent requests cannot both take the last slot.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	now := l.now()
	start := l.windowStart(now)

	count, err := l.store.IncrementWithExpiry(ctx, windowKey(key, start), 1, l.window+expiryBuffer)
	if err != nil {
		return nil, fmt.Errorf("rate limit store: %w", err)
	}

	allowed := count <= int64(l.limit)

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	resetAfter := start.Add(l.window).Sub(now)
	if resetAfter < 0 {
		resetAfter = 0
	}

	var retryAfter time.Duration
	if !allowed {
		retryAfter = resetAfter
	}

	return &Result{
		Allowed:    allowed,
		Limit:      l.limit,
		Remaining:  remaining,
		ResetAfter: resetAfter,
		RetryAfter: retryAfter,
	}, nil
}

// Reset implements Limiter.
func (l *FixedWindowLimiter) Reset(ctx context.Context, key string) error {
	return l.store.Delete(ctx, windowKey(key, l.windowStart(l.now())))
}

// Limit implements Limiter.
func (l *FixedWindowLimiter) Limit() Limit {
	return Limit{Requests: l.limit, Window: l.window}
}

// Ping implements Pinger.
func (l *FixedWindowLimiter) Ping(ctx context.Context) error {
	return l.store.Ping(ctx)
}

// Close implements Limiter and closes the underlying store.
func (l *FixedWindowLimiter) Close() error {
	return l.store.Close()
}
