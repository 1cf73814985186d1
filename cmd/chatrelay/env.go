package main

import "os"

// envConfigPath names the configuration file when -config is absent.
const envConfigPath = "CHATRELAY_CONFIG_PATH"

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
