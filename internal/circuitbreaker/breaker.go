// Package circuitbreaker guards calls to an unreliable dependency with
// a consecutive-failure circuit breaker built on gobreaker.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker is open")

var cbTracer = otel.Tracer("chatrelay/circuitbreaker")

// Config configures a Breaker.
type Config struct {
	Name string

	// Threshold is the number of consecutive failures that open the breaker.
	Threshold int

	// Timeout is how long the breaker stays open before allowing a probe.
	Timeout time.Duration

	// IsFailure decides whether an error counts against the breaker.
	// If nil, every non-nil error is a failure.
	IsFailure func(error) bool
}

// Breaker wraps gobreaker.CircuitBreaker.
type Breaker struct {
	cb      *gobreaker.CircuitBreaker
	logger  *zap.Logger
	metrics *Metrics
}

// Option is a functional option for configuring the breaker.
type Option func(*Breaker)

// WithLogger sets the logger for the breaker.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Breaker) {
		b.logger = logger
	}
}

// WithMetrics records state and rejections.
func WithMetrics(m *Metrics) Option {
	return func(b *Breaker) {
		b.metrics = m
	}
}

// New creates a new breaker.
func New(cfg Config, opts ...Option) *Breaker {
	b := &Breaker{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}

	threshold := safeIntToUint32(cfg.Threshold)
	if threshold == 0 {
		threshold = 1
	}

	isFailure := cfg.IsFailure
	if isFailure == nil {
		isFailure = func(err error) bool { return err != nil }
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isFailure(err)
		},
		OnStateChange: b.onStateChange,
	}

	b.cb = gobreaker.NewCircuitBreaker(settings)
	b.metrics.setState(cfg.Name, gobreaker.StateClosed)
	return b
}

func (b *Breaker) onStateChange(name string, from, to gobreaker.State) {
	b.logger.Warn("circuit breaker state change",
		zap.String("name", name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)

	b.metrics.setState(name, to)
	b.metrics.transition(name, from, to)

	_, span := cbTracer.Start(context.Background(),
		"circuitbreaker.state_change",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.AddEvent("state_change", trace.WithAttributes(
		attribute.String("circuitbreaker.name", name),
		attribute.String("circuitbreaker.from", from.String()),
		attribute.String("circuitbreaker.to", to.String()),
	))
	span.End()
}

// Execute runs fn unless the breaker is open. Rejections are reported
// as ErrOpen.
func (b *Breaker) Execute(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		b.metrics.rejected(b.cb.Name())
		return fmt.Errorf("%w: %s", ErrOpen, b.cb.Name())
	}
	return err
}

// State returns the current state name: closed, half-open or open.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// IsOpen reports whether calls are currently rejected.
func (b *Breaker) IsOpen() bool {
	return b.cb.State() == gobreaker.StateOpen
}

// Name returns the breaker name.
func (b *Breaker) Name() string {
	return b.cb.Name()
}

func safeIntToUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	if n > int(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n) //nolint:gosec // bounds checked above
}
