package config

import (
	"fmt"
	"strings"
)

// Validator validates chatrelay configuration.
type Validator struct {
	errors ConfigurationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates cfg. A single problem is returned as a
// *ConfigurationError; several are returned as ConfigurationErrors.
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = nil

	if cfg == nil {
		return &ConfigurationError{Reason: "configuration is nil"}
	}

	v.validateUpstream(&cfg.Upstream)
	v.validateRetry(&cfg.Retry)
	v.validateServer(&cfg.Server)
	v.validateRateLimit(&cfg.RateLimit)
	v.validateCircuitBreaker(&cfg.CircuitBreaker)
	v.validateObservability(&cfg.Observability)

	switch len(v.errors) {
	case 0:
		return nil
	case 1:
		return v.errors[0]
	default:
		return v.errors
	}
}

func (v *Validator) addError(field, format string, args ...interface{}) {
	v.errors = append(v.errors, &ConfigurationError{
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	})
}

func (v *Validator) validateUpstream(u *UpstreamConfig) {
	if strings.TrimSpace(u.APIKey) == "" {
		v.addError("upstream.apiKey", "API key is required (set %s)", EnvAPIKey)
	}
	if u.Model == "" {
		v.addError("upstream.model", "model is required")
	}
	if u.MaxTokens < 1 {
		v.addError("upstream.maxTokens", "must be at least 1, got %d", u.MaxTokens)
	}
	if u.Temperature < 0 {
		v.addError("upstream.temperature", "must not be negative, got %g", u.Temperature)
	}
	if u.Timeout < 0 {
		v.addError("upstream.timeout", "must not be negative")
	}
}

func (v *Validator) validateRetry(r *RetryConfig) {
	if r.MaxAttempts < 1 {
		v.addError("retry.maxAttempts", "must be at least 1, got %d", r.MaxAttempts)
	}
	if r.InitialDelay <= 0 {
		v.addError("retry.initialDelay", "must be positive")
	}
	if r.MaxDelay < 0 {
		v.addError("retry.maxDelay", "must not be negative")
	}
}

func (v *Validator) validateServer(s *ServerConfig) {
	if s.Port < 1 || s.Port > 65535 {
		v.addError("server.port", "must be between 1 and 65535, got %d", s.Port)
	}
	if s.MaxBodySize < 0 {
		v.addError("server.maxBodySize", "must not be negative")
	}
}

func (v *Validator) validateRateLimit(r *RateLimitConfig) {
	if !r.Enabled {
		return
	}
	if r.Requests < 1 {
		v.addError("rateLimit.requests", "must be positive, got %d", r.Requests)
	}
	if r.Window <= 0 {
		v.addError("rateLimit.window", "must be positive")
	}

	switch r.Algorithm {
	case AlgorithmFixedWindow, AlgorithmTokenBucket:
	default:
		v.addError("rateLimit.algorithm", "unknown algorithm %q", r.Algorithm)
	}

	switch r.Store {
	case StoreMemory:
	case StoreRedis:
		if r.Redis.Address == "" {
			v.addError("rateLimit.redis.address", "address is required for the redis store")
		}
		if r.Algorithm == AlgorithmTokenBucket {
			v.addError("rateLimit.store", "the %s algorithm only supports the memory store", r.Algorithm)
		}
	default:
		v.addError("rateLimit.store", "unknown store %q", r.Store)
	}
}

func (v *Validator) validateCircuitBreaker(cb *CircuitBreakerConfig) {
	if !cb.Enabled {
		return
	}
	if cb.Threshold < 1 {
		v.addError("circuitBreaker.threshold", "must be at least 1, got %d", cb.Threshold)
	}
	if cb.Timeout <= 0 {
		v.addError("circuitBreaker.timeout", "must be positive")
	}
}

func (v *Validator) validateObservability(o *ObservabilityConfig) {
	switch strings.ToLower(o.Logging.Format) {
	case "", "json", "console":
	default:
		v.addError("observability.logging.format", "unknown format %q", o.Logging.Format)
	}

	if o.Metrics.Enabled && (o.Metrics.Port < 1 || o.Metrics.Port > 65535) {
		v.addError("observability.metrics.port", "must be between 1 and 65535, got %d", o.Metrics.Port)
	}

	if o.Tracing.SamplingRate < 0 || o.Tracing.SamplingRate > 1 {
		v.addError("observability.tracing.samplingRate", "must be within [0, 1], got %g", o.Tracing.SamplingRate)
	}
}
