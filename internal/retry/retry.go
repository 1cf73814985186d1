package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Default retry configuration constants.
const (
	// DefaultMaxAttempts is the default total number of attempts,
	// including the first one.
	DefaultMaxAttempts = 3

	// DefaultInitialDelay is the default wait before the first retry.
	DefaultInitialDelay = time.Second
)

// ErrAttemptsExhausted is returned when the attempt loop ends without
// either returning a result or an error. It cannot happen while State
// enforces its transitions and is kept as a terminal safeguard.
var ErrAttemptsExhausted = errors.New("retry: attempts exhausted")

// Config contains retry configuration parameters.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Default is 3.
	MaxAttempts int

	// InitialDelay is the wait before the first retry. Each subsequent
	// wait is exactly twice the previous one.
	// Default is 1s.
	InitialDelay time.Duration

	// MaxDelay caps a single wait. Zero leaves the growth uncapped.
	MaxDelay time.Duration
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
	}
}

// GetMaxAttempts returns the effective max attempts.
func (c *Config) GetMaxAttempts() int {
	if c == nil || c.MaxAttempts < 1 {
		return DefaultMaxAttempts
	}
	return c.MaxAttempts
}

// GetInitialDelay returns the effective initial delay.
func (c *Config) GetInitialDelay() time.Duration {
	if c == nil || c.InitialDelay <= 0 {
		return DefaultInitialDelay
	}
	return c.InitialDelay
}

// GetMaxDelay returns the effective delay cap. Zero means uncapped.
func (c *Config) GetMaxDelay() time.Duration {
	if c == nil || c.MaxDelay < 0 {
		return 0
	}
	return c.MaxDelay
}

// ExhaustedError is returned when every attempt failed with a
// retryable error. It wraps the error of the final attempt.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("upstream rate limit persisted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// RetryableFunc is a single attempt of the operation.
type RetryableFunc func(ctx context.Context) error

// ShouldRetryFunc determines if an error should trigger a retry.
type ShouldRetryFunc func(error) bool

// OnRetryFunc is called before each backoff wait. attempt is the
// 1-based number of the attempt that just failed.
type OnRetryFunc func(attempt int, err error, wait time.Duration)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options contains optional retry behavior configuration.
type Options struct {
	// ShouldRetry determines if an error should trigger a retry.
	// If nil, all errors are retried.
	ShouldRetry ShouldRetryFunc

	// OnRetry is called before each backoff wait.
	OnRetry OnRetryFunc

	// Sleep replaces the timer based wait. Used by tests.
	Sleep SleepFunc

	// Metrics records attempts and waits under Operation.
	Metrics   *Metrics
	Operation string
}

// Do executes fn until it succeeds, fails with a non-retryable error
// or runs out of attempts. The retry state is local to the call.
func Do(ctx context.Context, cfg *Config, fn RetryableFunc, opts *Options) error {
	if opts == nil {
		opts = &Options{}
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	state := NewState(cfg)
	start := time.Now()

	for state.Phase() == PhaseAttempt {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			if tErr := state.Succeed(); tErr != nil {
				return tErr
			}
			opts.Metrics.observeAttempt(opts.Operation, resultSuccess)
			opts.Metrics.observeDuration(opts.Operation, resultSuccess, time.Since(start))
			return nil
		}

		retryable := opts.ShouldRetry == nil || opts.ShouldRetry(err)
		wait, again, tErr := state.Fail(retryable)
		if tErr != nil {
			return tErr
		}

		if !again {
			if retryable {
				opts.Metrics.observeAttempt(opts.Operation, resultExhausted)
				opts.Metrics.observeDuration(opts.Operation, resultExhausted, time.Since(start))
				return &ExhaustedError{Attempts: state.Attempt(), Last: err}
			}
			opts.Metrics.observeAttempt(opts.Operation, resultFailure)
			opts.Metrics.observeDuration(opts.Operation, resultFailure, time.Since(start))
			return err
		}

		opts.Metrics.observeAttempt(opts.Operation, resultRetry)
		opts.Metrics.observeBackoff(opts.Operation, wait)
		if opts.OnRetry != nil {
			opts.OnRetry(state.Attempt(), err, wait)
		}

		if err := sleep(ctx, wait); err != nil {
			return err
		}

		if tErr := state.Resume(); tErr != nil {
			return tErr
		}
	}

	return ErrAttemptsExhausted
}

// sleepContext waits for d without blocking other goroutines and
// returns early with the context error on cancellation.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
