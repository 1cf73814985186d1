package completion

import (
	"errors"
	"fmt"
	"time"

	"github.com/vyrodovalexey/chatrelay/internal/retry"
)

// RateLimitError reports that the provider refused an attempt because of
// rate limiting (HTTP 429). It is the only retryable failure.
type RateLimitError struct {
	Message string

	// RetryAfter is the provider's hint, if it sent one. It is logged but
	// does not change the backoff schedule.
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.Message == "" {
		return "rate limit exceeded"
	}
	return e.Message
}

// RetryExhaustedError is returned when every attempt was rate limited.
// Last holds the final *RateLimitError.
type RetryExhaustedError = retry.ExhaustedError

// UpstreamError reports any non-retryable provider failure: rejected
// credentials, malformed responses, network errors and non-429 statuses.
// Its message is the provider's message without decoration.
type UpstreamError struct {
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return "upstream error"
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ErrNoChoices is wrapped by the UpstreamError returned for a response
// without choices.
var ErrNoChoices = errors.New("upstream returned no choices")

// IsRateLimited reports whether err is, or wraps, a *RateLimitError.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsRetryExhausted reports whether err is, or wraps, a *RetryExhaustedError.
func IsRetryExhausted(err error) bool {
	var ex *RetryExhaustedError
	return errors.As(err, &ex)
}
