package config

import "time"

// Default configuration values.
const (
	DefaultModel        = "gpt-3.5-turbo"
	DefaultMaxTokens    = 150
	DefaultTemperature  = 0.7
	DefaultSystemPrompt = "You are a helpful assistant. Answer briefly and politely."

	DefaultPort         = 3000
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 60 * time.Second
	DefaultMaxBodySize  = 1 << 20

	DefaultUpstreamTimeout = 30 * time.Second

	DefaultRetryMaxAttempts  = 3
	DefaultRetryInitialDelay = time.Second

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 60 * time.Second
	DefaultRedisAddress      = "localhost:6379"
	DefaultRedisPrefix       = "chatrelay:ratelimit:"

	DefaultBreakerThreshold = 5
	DefaultBreakerTimeout   = 30 * time.Second

	DefaultMetricsPort  = 9090
	DefaultMetricsPath  = "/metrics"
	DefaultServiceName  = "chatrelay"
	DefaultSamplingRate = 1.0
)

// Rate limit algorithms.
const (
	AlgorithmFixedWindow = "fixed_window"
	AlgorithmTokenBucket = "token_bucket"
)

// Rate limit stores.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config is the complete chatrelay configuration.
type Config struct {
	Upstream       UpstreamConfig       `yaml:"upstream" json:"upstream"`
	Retry          RetryConfig          `yaml:"retry" json:"retry"`
	Server         ServerConfig         `yaml:"server" json:"server"`
	CORS           CORSConfig           `yaml:"cors" json:"cors"`
	RateLimit      RateLimitConfig      `yaml:"rateLimit" json:"rateLimit"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker" json:"circuitBreaker"`
	Observability  ObservabilityConfig  `yaml:"observability" json:"observability"`
}

// UpstreamConfig configures the chat completion provider.
type UpstreamConfig struct {
	APIKey           string   `yaml:"apiKey" json:"-"`
	BaseURL          string   `yaml:"baseURL,omitempty" json:"baseURL,omitempty"`
	Model            string   `yaml:"model,omitempty" json:"model,omitempty"`
	MaxTokens        int      `yaml:"maxTokens,omitempty" json:"maxTokens,omitempty"`
	Temperature      float64  `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	Timeout          Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	SystemPrompt     string   `yaml:"systemPrompt,omitempty" json:"systemPrompt,omitempty"`
	SystemPromptFile string   `yaml:"systemPromptFile,omitempty" json:"systemPromptFile,omitempty"`
}

// RetryConfig configures the backoff applied to rate-limited upstream calls.
type RetryConfig struct {
	MaxAttempts  int      `yaml:"maxAttempts,omitempty" json:"maxAttempts,omitempty"`
	InitialDelay Duration `yaml:"initialDelay,omitempty" json:"initialDelay,omitempty"`
	// MaxDelay caps a single wait. Zero means uncapped.
	MaxDelay Duration `yaml:"maxDelay,omitempty" json:"maxDelay,omitempty"`
}

// ServerConfig configures the public HTTP listener.
type ServerConfig struct {
	Address        string   `yaml:"address,omitempty" json:"address,omitempty"`
	Port           int      `yaml:"port,omitempty" json:"port,omitempty"`
	ReadTimeout    Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	WriteTimeout   Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`
	MaxBodySize    int64    `yaml:"maxBodySize,omitempty" json:"maxBodySize,omitempty"`
	TrustedProxies []string `yaml:"trustedProxies,omitempty" json:"trustedProxies,omitempty"`
}

// CORSConfig configures cross-origin access.
type CORSConfig struct {
	AllowOrigins []string `yaml:"allowOrigins,omitempty" json:"allowOrigins,omitempty"`
}

// RateLimitConfig configures the per-address request quota.
type RateLimitConfig struct {
	Enabled   bool        `yaml:"enabled" json:"enabled"`
	Algorithm string      `yaml:"algorithm,omitempty" json:"algorithm,omitempty"`
	Requests  int         `yaml:"requests,omitempty" json:"requests,omitempty"`
	Window    Duration    `yaml:"window,omitempty" json:"window,omitempty"`
	Store     string      `yaml:"store,omitempty" json:"store,omitempty"`
	Redis     RedisConfig `yaml:"redis,omitempty" json:"redis,omitempty"`
}

// RedisConfig configures the shared rate limit store.
type RedisConfig struct {
	Address  string `yaml:"address,omitempty" json:"address,omitempty"`
	Password string `yaml:"password,omitempty" json:"-"`
	DB       int    `yaml:"db,omitempty" json:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
}

// CircuitBreakerConfig configures the breaker guarding the upstream.
type CircuitBreakerConfig struct {
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	Threshold int      `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Timeout   Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// ObservabilityConfig represents observability configuration.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	Tracing TracingConfig `yaml:"tracing,omitempty" json:"tracing,omitempty"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// MetricsConfig represents metrics configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
	Port    int    `yaml:"port,omitempty" json:"port,omitempty"`
}

// TracingConfig represents tracing configuration.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	SamplingRate float64 `yaml:"samplingRate,omitempty" json:"samplingRate,omitempty"`
	OTLPEndpoint string  `yaml:"otlpEndpoint,omitempty" json:"otlpEndpoint,omitempty"`
	ServiceName  string  `yaml:"serviceName,omitempty" json:"serviceName,omitempty"`
}

// DefaultConfig returns a configuration populated with defaults. The API
// key is left empty and must be supplied.
func DefaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			Model:        DefaultModel,
			MaxTokens:    DefaultMaxTokens,
			Temperature:  DefaultTemperature,
			Timeout:      Duration(DefaultUpstreamTimeout),
			SystemPrompt: DefaultSystemPrompt,
		},
		Retry: RetryConfig{
			MaxAttempts:  DefaultRetryMaxAttempts,
			InitialDelay: Duration(DefaultRetryInitialDelay),
		},
		Server: ServerConfig{
			Port:         DefaultPort,
			ReadTimeout:  Duration(DefaultReadTimeout),
			WriteTimeout: Duration(DefaultWriteTimeout),
			MaxBodySize:  DefaultMaxBodySize,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
		},
		RateLimit: RateLimitConfig{
			Enabled:   true,
			Algorithm: AlgorithmFixedWindow,
			Requests:  DefaultRateLimitRequests,
			Window:    Duration(DefaultRateLimitWindow),
			Store:     StoreMemory,
			Redis: RedisConfig{
				Address: DefaultRedisAddress,
				Prefix:  DefaultRedisPrefix,
			},
		},
		CircuitBreaker: CircuitBreakerConfig{
			Threshold: DefaultBreakerThreshold,
			Timeout:   Duration(DefaultBreakerTimeout),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    DefaultMetricsPath,
				Port:    DefaultMetricsPort,
			},
			Tracing: TracingConfig{
				SamplingRate: DefaultSamplingRate,
				ServiceName:  DefaultServiceName,
			},
		},
	}
}
