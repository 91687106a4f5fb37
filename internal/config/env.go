package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func getEnvNonEmpty(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
		return defaultValue
	}
	return defaultValue
}

// getEnvDuration accepts a Go duration ("250ms", "5s") or a bare integer
// number of milliseconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
