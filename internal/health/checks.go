package health

import "context"

// PingCheck reports unhealthy when ping fails. It is used for the
// rate-limit store.
func PingCheck(ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) Check {
		if err := ping(ctx); err != nil {
			return Check{Status: StatusUnhealthy, Message: err.Error()}
		}
		return Check{Status: StatusHealthy}
	}
}

// BreakerCheck reports unhealthy while the upstream circuit breaker is open.
func BreakerCheck(isOpen func() bool) CheckFunc {
	return func(context.Context) Check {
		if isOpen() {
			return Check{Status: StatusUnhealthy, Message: "circuit breaker is open"}
		}
		return Check{Status: StatusHealthy}
	}
}

// StaticCheck always reports status with message.
func StaticCheck(status Status, message string) CheckFunc {
	return func(context.Context) Check {
		return Check{Status: status, Message: message}
	}
}
