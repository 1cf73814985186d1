package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// LookupEnvFunc looks up an environment variable.
type LookupEnvFunc func(key string) (string, bool)

// Loader assembles the configuration from defaults, an optional YAML
// file and the environment.
type Loader struct {
	lookupEnv LookupEnvFunc
	readFile  func(name string) ([]byte, error)
}

// LoaderOption is a functional option for configuring the loader.
type LoaderOption func(*Loader)

// WithLookupEnv replaces os.LookupEnv. Used by tests.
func WithLookupEnv(fn LookupEnvFunc) LoaderOption {
	return func(l *Loader) {
		l.lookupEnv = fn
	}
}

// WithEnv makes the loader read variables from a fixed map.
func WithEnv(env map[string]string) LoaderOption {
	return WithLookupEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		lookupEnv: os.LookupEnv,
		readFile:  os.ReadFile,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load builds and validates the configuration. path may be empty, in
// which case only defaults and the environment are used.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
		}

		data, err := l.readFile(absPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := l.decode(data, cfg); err != nil {
			return nil, err
		}
	}

	return l.finish(cfg)
}

// LoadFromReader builds and validates the configuration using YAML read from r.
func (l *Loader) LoadFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := l.decode(data, cfg); err != nil {
		return nil, err
	}

	return l.finish(cfg)
}

func (l *Loader) finish(cfg *Config) (*Config, error) {
	if err := applyEnv(cfg, l.lookupEnv); err != nil {
		return nil, err
	}

	if err := l.resolveSystemPrompt(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// decode parses YAML over the defaults already present in cfg.
func (l *Loader) decode(data []byte, cfg *Config) error {
	content := l.substituteEnvVars(string(data))

	if strings.TrimSpace(content) == "" {
		return nil
	}

	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// resolveSystemPrompt replaces the inline prompt with the file contents
// when a prompt file is configured.
func (l *Loader) resolveSystemPrompt(cfg *Config) error {
	path := cfg.Upstream.SystemPromptFile
	if path == "" {
		return nil
	}

	data, err := l.readFile(path)
	if err != nil {
		return &ConfigurationError{
			Field:  "upstream.systemPromptFile",
			Reason: fmt.Sprintf("cannot read %s: %v", path, err),
		}
	}

	cfg.Upstream.SystemPrompt = strings.TrimSpace(string(data))
	return nil
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment variable values.
func (l *Loader) substituteEnvVars(content string) string {
	content = strings.ReplaceAll(content, "$$", "\x00ESCAPED_DOLLAR\x00")

	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		if value, exists := l.lookupEnv(submatches[1]); exists {
			return value
		}
		if len(submatches) >= 3 {
			return submatches[2]
		}
		return ""
	})

	return strings.ReplaceAll(result, "\x00ESCAPED_DOLLAR\x00", "$")
}
