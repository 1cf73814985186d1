package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_DefaultsWithAPIKey(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(WithEnv(map[string]string{EnvAPIKey: "sk-test"})).Load("")
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Upstream.APIKey)
	assert.Equal(t, DefaultModel, cfg.Upstream.Model)
	assert.Equal(t, 150, cfg.Upstream.MaxTokens)
	assert.InDelta(t, 0.7, cfg.Upstream.Temperature, 1e-9)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowOrigins)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.InitialDelay.Duration())
	assert.Zero(t, cfg.Retry.MaxDelay)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 30, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window.Duration())
	assert.Equal(t, StoreMemory, cfg.RateLimit.Store)
	assert.False(t, cfg.CircuitBreaker.Enabled)
}

func TestLoader_MissingAPIKey(t *testing.T) {
	t.Parallel()

	_, err := NewLoader(WithEnv(nil)).Load("")
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "upstream.apiKey", cfgErr.Field)
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		EnvAPIKey:             "sk-env",
		EnvBaseURL:            "http://localhost:8080/v1",
		EnvModel:              "gpt-4o-mini",
		EnvPort:               "8081",
		EnvHost:               "127.0.0.1",
		EnvAllowedOrigins:     "https://a.example, https://b.example,",
		EnvTrustedProxies:     "10.0.0.0/8",
		EnvRetryMaxAttempts:   "5",
		EnvRetryInitialDelay:  "250ms",
		EnvRetryMaxDelay:      "2s",
		EnvRateLimitEnabled:   "false",
		EnvRateLimitMax:       "100",
		EnvRateLimitWindow:    "30s",
		EnvRateLimitAlgorithm: AlgorithmTokenBucket,
		EnvRateLimitStore:     StoreRedis,
		EnvRedisAddress:       "redis:6379",
		EnvBreakerEnabled:     "true",
		EnvLogLevel:           "debug",
		EnvLogFormat:          "console",
		EnvMetricsPort:        "9100",
		EnvTracingEnabled:     "true",
		EnvOTLPEndpoint:       "otel:4317",
		EnvSystemPrompt:       "Be terse.",
	}

	cfg, err := NewLoader(WithEnv(env)).Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/v1", cfg.Upstream.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.Upstream.Model)
	assert.Equal(t, "Be terse.", cfg.Upstream.SystemPrompt)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Address)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowOrigins)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.Server.TrustedProxies)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.InitialDelay.Duration())
	assert.Equal(t, 2*time.Second, cfg.Retry.MaxDelay.Duration())
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window.Duration())
	assert.Equal(t, AlgorithmTokenBucket, cfg.RateLimit.Algorithm)
	assert.Equal(t, StoreRedis, cfg.RateLimit.Store)
	assert.Equal(t, "redis:6379", cfg.RateLimit.Redis.Address)
	assert.True(t, cfg.CircuitBreaker.Enabled)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
	assert.Equal(t, "console", cfg.Observability.Logging.Format)
	assert.Equal(t, 9100, cfg.Observability.Metrics.Port)
	assert.True(t, cfg.Observability.Tracing.Enabled)
	assert.Equal(t, "otel:4317", cfg.Observability.Tracing.OTLPEndpoint)
}

func TestLoader_InvalidEnvValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port not a number", EnvPort, "abc"},
		{"bool not a bool", EnvRateLimitEnabled, "maybe"},
		{"bad duration", EnvRetryInitialDelay, "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewLoader(WithEnv(map[string]string{
				EnvAPIKey: "sk-test",
				tt.key:    tt.value,
			})).Load("")

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.key, cfgErr.Field)
		})
	}
}

func TestLoader_YAMLFileWithSubstitution(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "chatrelay.yaml")
	content := `
upstream:
  apiKey: ${TEST_KEY}
  model: ${TEST_MODEL:-gpt-4o}
  temperature: 0.2
retry:
  maxAttempts: 4
  initialDelay: 500ms
server:
  port: 8088
rateLimit:
  requests: 10
  window: 10s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := NewLoader(WithEnv(map[string]string{"TEST_KEY": "sk-file"})).Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-file", cfg.Upstream.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Upstream.Model)
	assert.InDelta(t, 0.2, cfg.Upstream.Temperature, 1e-9)
	assert.Equal(t, 150, cfg.Upstream.MaxTokens)
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.InitialDelay.Duration())
	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, 10, cfg.RateLimit.Requests)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	t.Parallel()

	yaml := "upstream:\n  apiKey: sk-file\nserver:\n  port: 8088\n"
	cfg, err := NewLoader(WithEnv(map[string]string{EnvPort: "9000"})).
		LoadFromReader(strings.NewReader(yaml))
	require.NoError(t, err)

	assert.Equal(t, "sk-file", cfg.Upstream.APIKey)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoader_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := NewLoader(WithEnv(nil)).LoadFromReader(strings.NewReader("upstream: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoader_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewLoader(WithEnv(nil)).Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoader_SystemPromptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("  You are a pirate.\n"), 0o600))

	cfg, err := NewLoader(WithEnv(map[string]string{
		EnvAPIKey:           "sk-test",
		EnvSystemPrompt:     "ignored",
		EnvSystemPromptFile: path,
	})).Load("")
	require.NoError(t, err)

	assert.Equal(t, "You are a pirate.", cfg.Upstream.SystemPrompt)
}

func TestLoader_SystemPromptFileMissing(t *testing.T) {
	t.Parallel()

	_, err := NewLoader(WithEnv(map[string]string{
		EnvAPIKey:           "sk-test",
		EnvSystemPromptFile: filepath.Join(t.TempDir(), "nope.txt"),
	})).Load("")

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "upstream.systemPromptFile", cfgErr.Field)
}

func TestLoader_SubstituteEnvVars(t *testing.T) {
	t.Parallel()

	l := NewLoader(WithEnv(map[string]string{"SET": "value", "EMPTY": ""}))

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"set variable", "${SET}", "value"},
		{"unset variable", "${UNSET}", ""},
		{"unset with default", "${UNSET:-fallback}", "fallback"},
		{"set ignores default", "${SET:-fallback}", "value"},
		{"empty but set", "${EMPTY:-fallback}", ""},
		{"escaped dollar", "$${SET}", "${SET}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, l.substituteEnvVars(tt.input))
		})
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b"}, SplitList(" a ,, b ,"))
	assert.Empty(t, SplitList(" , "))
}

func TestLoader_ReadFileError(t *testing.T) {
	t.Parallel()

	l := NewLoader(WithEnv(nil))
	l.readFile = func(string) ([]byte, error) { return nil, errors.New("denied") }

	_, err := l.Load("chatrelay.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}
