// Package health provides the liveness, health and readiness endpoints.
//
// A Checker reports version and uptime for liveness and runs the
// registered readiness checks on every /ready probe. Each check gets its
// own timeout; one unhealthy check makes the whole probe answer 503, a
// degraded check is reported but keeps the probe at 200.
//
//	checker := health.NewChecker(version, health.WithLogger(logger))
//	checker.RegisterCheck("ratelimit", health.PingCheck(limiter.Ping))
//
//	mux.HandleFunc("/health", checker.HealthHandler())
//	mux.HandleFunc("/ready", checker.ReadinessHandler())
package health
