// Package observability provides logging, metrics and tracing for
// chatrelay.
//
// # Logging
//
// NewLogger builds a zap logger from LogConfig. JSON output is the
// default, console output is available for local development.
//
//	logger, err := observability.NewLogger(observability.LogConfig{Level: "info"})
//
// # Metrics
//
// Metrics owns a private Prometheus registry. Other packages register
// their collectors through Registerer so that a single /metrics endpoint
// exposes everything.
//
// # Tracing
//
// NewTracer configures an OpenTelemetry tracer provider exporting over
// OTLP/gRPC. When tracing is disabled the global no-op provider is used.
package observability
