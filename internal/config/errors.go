package config

import (
	"fmt"
	"strings"
)

// ConfigurationError reports an invalid or missing setting. It is fatal
// at startup.
type ConfigurationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
	}
	return "invalid configuration: " + e.Reason
}

// ConfigurationErrors is a collection of configuration errors.
type ConfigurationErrors []*ConfigurationError

// Error implements the error interface.
func (e ConfigurationErrors) Error() string {
	if len(e) == 0 {
		return "no configuration errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d configuration errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e ConfigurationErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, err := range e {
		errs[i] = err
	}
	return errs
}
