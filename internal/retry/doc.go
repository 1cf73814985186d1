// Package retry provides bounded retry with exact exponential backoff
// for calls to rate-limited upstream services.
//
// The retry loop is modelled as an explicit state machine (State) so
// that the attempt and delay invariants can be checked independently
// of how the waits are scheduled:
//
//	START -> ATTEMPT(1)
//	ATTEMPT(n) --success-->             DONE
//	ATTEMPT(n) --retryable, n<max-->    BACKOFF(delay) -> ATTEMPT(n+1), delay*=2
//	ATTEMPT(n) --retryable, n==max-->   FAILED (ExhaustedError)
//	ATTEMPT(n) --other error-->         FAILED (error propagated)
//
// # Usage
//
//	cfg := retry.DefaultConfig()
//	err := retry.Do(ctx, cfg, func(ctx context.Context) error {
//	    return callUpstream(ctx)
//	}, &retry.Options{
//	    ShouldRetry: isRateLimited,
//	})
//
// # Configuration
//
//	cfg := &retry.Config{
//	    MaxAttempts:  3,
//	    InitialDelay: time.Second,
//	    MaxDelay:     0, // uncapped
//	}
package retry
