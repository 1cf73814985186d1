package retry

import (
	"math"
	"time"
)

// Double returns 2*d. The result is capped at maxDelay when maxDelay is
// positive, and saturates at the largest representable duration
// instead of overflowing.
func Double(d, maxDelay time.Duration) time.Duration {
	next := d * 2
	if d > math.MaxInt64/2 {
		next = time.Duration(math.MaxInt64)
	}

	if maxDelay > 0 && next > maxDelay {
		return maxDelay
	}
	return next
}

// Schedule returns the waits a call with cfg performs if every attempt
// but the last one fails with a retryable error.
func Schedule(cfg *Config) []time.Duration {
	n := cfg.GetMaxAttempts() - 1
	waits := make([]time.Duration, 0, n)

	delay := cfg.GetInitialDelay()
	maxDelay := cfg.GetMaxDelay()
	if maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}

	for i := 0; i < n; i++ {
		waits = append(waits, delay)
		delay = Double(delay, maxDelay)
	}
	return waits
}
