// Package config provides configuration types and loading for chatrelay.
//
// Configuration is assembled once at startup from three layers, later
// layers overriding earlier ones:
//
//   - built-in defaults (DefaultConfig)
//   - an optional YAML file with ${VAR} and ${VAR:-default} substitution
//   - environment variables (OPENAI_API_KEY, PORT, RATE_LIMIT_MAX, ...)
//
// The result is validated before it is returned. Any problem is reported
// as a *ConfigurationError and is fatal for the process.
//
// # Configuration Loading
//
//	cfg, err := config.NewLoader().Load("chatrelay.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
