package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvAPIKey           = "OPENAI_API_KEY"
	EnvBaseURL          = "OPENAI_BASE_URL"
	EnvModel            = "OPENAI_MODEL"
	EnvUpstreamTimeout  = "OPENAI_TIMEOUT"
	EnvSystemPrompt     = "SYSTEM_PROMPT"
	EnvSystemPromptFile = "SYSTEM_PROMPT_FILE"

	EnvRetryMaxAttempts  = "RETRY_MAX_ATTEMPTS"
	EnvRetryInitialDelay = "RETRY_INITIAL_DELAY"
	EnvRetryMaxDelay     = "RETRY_MAX_DELAY"

	EnvHost           = "HOST"
	EnvPort           = "PORT"
	EnvTrustedProxies = "TRUSTED_PROXIES"
	EnvAllowedOrigins = "ALLOWED_ORIGINS"

	EnvRateLimitEnabled   = "RATE_LIMIT_ENABLED"
	EnvRateLimitAlgorithm = "RATE_LIMIT_ALGORITHM"
	EnvRateLimitMax       = "RATE_LIMIT_MAX"
	EnvRateLimitWindow    = "RATE_LIMIT_WINDOW"
	EnvRateLimitStore     = "RATE_LIMIT_STORE"
	EnvRedisAddress       = "REDIS_ADDRESS"
	EnvRedisPassword      = "REDIS_PASSWORD"

	EnvBreakerEnabled = "CIRCUIT_BREAKER_ENABLED"

	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
	EnvMetricsEnabled = "METRICS_ENABLED"
	EnvMetricsPort    = "METRICS_PORT"
	EnvTracingEnabled = "TRACING_ENABLED"
	EnvOTLPEndpoint   = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

// envReader applies environment overrides and remembers the first parse
// failure.
type envReader struct {
	lookup LookupEnvFunc
	err    error
}

func applyEnv(cfg *Config, lookup LookupEnvFunc) error {
	r := &envReader{lookup: lookup}

	r.str(EnvAPIKey, &cfg.Upstream.APIKey)
	r.str(EnvBaseURL, &cfg.Upstream.BaseURL)
	r.str(EnvModel, &cfg.Upstream.Model)
	r.duration(EnvUpstreamTimeout, &cfg.Upstream.Timeout)
	r.str(EnvSystemPrompt, &cfg.Upstream.SystemPrompt)
	r.str(EnvSystemPromptFile, &cfg.Upstream.SystemPromptFile)

	r.int(EnvRetryMaxAttempts, &cfg.Retry.MaxAttempts)
	r.duration(EnvRetryInitialDelay, &cfg.Retry.InitialDelay)
	r.duration(EnvRetryMaxDelay, &cfg.Retry.MaxDelay)

	r.str(EnvHost, &cfg.Server.Address)
	r.int(EnvPort, &cfg.Server.Port)
	r.list(EnvTrustedProxies, &cfg.Server.TrustedProxies)
	r.list(EnvAllowedOrigins, &cfg.CORS.AllowOrigins)

	r.bool(EnvRateLimitEnabled, &cfg.RateLimit.Enabled)
	r.str(EnvRateLimitAlgorithm, &cfg.RateLimit.Algorithm)
	r.int(EnvRateLimitMax, &cfg.RateLimit.Requests)
	r.duration(EnvRateLimitWindow, &cfg.RateLimit.Window)
	r.str(EnvRateLimitStore, &cfg.RateLimit.Store)
	r.str(EnvRedisAddress, &cfg.RateLimit.Redis.Address)
	r.str(EnvRedisPassword, &cfg.RateLimit.Redis.Password)

	r.bool(EnvBreakerEnabled, &cfg.CircuitBreaker.Enabled)

	r.str(EnvLogLevel, &cfg.Observability.Logging.Level)
	r.str(EnvLogFormat, &cfg.Observability.Logging.Format)
	r.bool(EnvMetricsEnabled, &cfg.Observability.Metrics.Enabled)
	r.int(EnvMetricsPort, &cfg.Observability.Metrics.Port)
	r.bool(EnvTracingEnabled, &cfg.Observability.Tracing.Enabled)
	r.str(EnvOTLPEndpoint, &cfg.Observability.Tracing.OTLPEndpoint)

	return r.err
}

func (r *envReader) get(key string) (string, bool) {
	v, ok := r.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (r *envReader) fail(key, reason string) {
	if r.err == nil {
		r.err = &ConfigurationError{Field: key, Reason: reason}
	}
}

func (r *envReader) str(key string, dst *string) {
	if v, ok := r.get(key); ok {
		*dst = v
	}
}

func (r *envReader) int(key string, dst *int) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, fmt.Sprintf("%q is not an integer", v))
		return
	}
	*dst = n
}

func (r *envReader) bool(key string, dst *bool) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, fmt.Sprintf("%q is not a boolean", v))
		return
	}
	*dst = b
}

func (r *envReader) duration(key string, dst *Duration) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	d, err := ParseDuration(v)
	if err != nil {
		r.fail(key, err.Error())
		return
	}
	*dst = d
}

func (r *envReader) list(key string, dst *[]string) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	*dst = SplitList(v)
}

// SplitList splits a comma separated value, dropping empty items.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
