package env

import "os"

// Get returns the value of the given environment variable or a fallback.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// Instance returns the process identifier used in startup logs.
func Instance() string {
	return Get("DYNO", Get("HOSTNAME", "local"))
}
