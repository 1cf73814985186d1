package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Token bucket housekeeping defaults.
const (
	DefaultBucketTTL       = 10 * time.Minute
	DefaultCleanupInterval = time.Minute
)

type bucketEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// TokenBucketLimiter gives every key a bucket of Requests tokens that
// refills evenly over Window. State is held in process memory.
type TokenBucketLimiter struct {
	limit  int
	window time.Duration
	every  rate.Limit
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucketEntry
	ttl     time.Duration

	stopCh    chan struct{}
	closeOnce sync.Once
}

// NewTokenBucketLimiter creates a token bucket limiter and starts a
// goroutine that evicts buckets idle for longer than DefaultBucketTTL.
func NewTokenBucketLimiter(limit int, window time.Duration, logger *zap.Logger) *TokenBucketLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &TokenBucketLimiter{
		limit:   limit,
		window:  window,
		every:   rate.Every(window / time.Duration(limit)),
		logger:  logger,
		now:     time.Now,
		buckets: make(map[string]*bucketEntry),
		ttl:     DefaultBucketTTL,
		stopCh:  make(chan struct{}),
	}

	go l.cleanupLoop(DefaultCleanupInterval)

	return l
}

func (l *TokenBucketLimiter) bucket(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.buckets[key]
	if !ok {
		entry = &bucketEntry{limiter: rate.NewLimiter(l.every, l.limit)}
		l.buckets[key] = entry
	}
	entry.lastAccess = now
	return entry.limiter
}

// Allow implements Limiter.
func (l *TokenBucketLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := l.now()
	lim := l.bucket(key, now)

	allowed := lim.AllowN(now, 1)
	tokens := lim.TokensAt(now)

	remaining := int(math.Floor(tokens))
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:    allowed,
		Limit:      l.limit,
		Remaining:  remaining,
		ResetAfter: l.refillTime(float64(l.limit) - tokens),
	}
	if !allowed {
		result.RetryAfter = l.refillTime(1 - tokens)
	}

	return result, nil
}

// refillTime returns how long the bucket needs to gain n tokens.
func (l *TokenBucketLimiter) refillTime(n float64) time.Duration {
	if n <= 0 {
		return 0
	}
	perToken := float64(l.window) / float64(l.limit)
	return time.Duration(math.Ceil(n * perToken))
}

// Reset implements Limiter.
func (l *TokenBucketLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.buckets, key)
	return nil
}

// Limit implements Limiter.
func (l *TokenBucketLimiter) Limit() Limit {
	return Limit{Requests: l.limit, Window: l.window}
}

// Close implements Limiter. Safe to call multiple times.
func (l *TokenBucketLimiter) Close() error {
	l.closeOnce.Do(func() {
		close(l.stopCh)
	})
	return nil
}

func (l *TokenBucketLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-l.stopCh:
			return
		}
	}
}

func (l *TokenBucketLimiter) evictIdle() {
	cutoff := l.now().Add(-l.ttl)

	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for key, entry := range l.buckets {
		if entry.lastAccess.Before(cutoff) {
			delete(l.buckets, key)
			evicted++
		}
	}

	if evicted > 0 {
		l.logger.Debug("evicted idle rate limit buckets", zap.Int("count", evicted))
	}
}
