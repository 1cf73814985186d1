// Package ratelimit provides per-client request quotas for chatrelay.
// Two algorithms are available: a fixed window counter backed by a
// store (memory or Redis) and an in-process token bucket.
package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	// Allow records one request for key and reports the decision.
	Allow(ctx context.Context, key string) (*Result, error)

	// Reset clears the state held for key.
	Reset(ctx context.Context, key string) error

	// Limit returns the configured quota.
	Limit() Limit

	// Close releases background resources.
	Close() error
}

// Pinger is implemented by limiters whose state lives in an external
// store that can become unreachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Limit represents rate limit configuration.
type Limit struct {
	// Requests is the maximum number of requests allowed in the window.
	Requests int

	// Window is the time window for the rate limit.
	Window time.Duration
}

// Result represents the result of a rate limit check.
type Result struct {
	// Allowed indicates whether the request is allowed.
	Allowed bool

	// Limit is the maximum number of requests allowed.
	Limit int

	// Remaining is the number of requests remaining in the current window.
	Remaining int

	// ResetAfter is the duration until the quota is fully restored.
	ResetAfter time.Duration

	// RetryAfter is the duration to wait before retrying (when not allowed).
	RetryAfter time.Duration
}

// Algorithm represents the rate limiting algorithm type.
type Algorithm string

const (
	// AlgorithmFixedWindow counts requests in clock-aligned windows.
	AlgorithmFixedWindow Algorithm = "fixed_window"

	// AlgorithmTokenBucket refills Requests tokens evenly over Window.
	AlgorithmTokenBucket Algorithm = "token_bucket"
)

// NoopLimiter is a rate limiter that always allows requests.
type NoopLimiter struct{}

// NewNoopLimiter creates a new noop limiter.
func NewNoopLimiter() *NoopLimiter {
	return &NoopLimiter{}
}

// Allow implements Limiter.
func (l *NoopLimiter) Allow(context.Context, string) (*Result, error) {
	return &Result{Allowed: true}, nil
}

// Reset implements Limiter.
func (l *NoopLimiter) Reset(context.Context, string) error {
	return nil
}

// Limit implements Limiter.
func (l *NoopLimiter) Limit() Limit {
	return Limit{}
}

// Close implements Limiter.
func (l *NoopLimiter) Close() error {
	return nil
}
