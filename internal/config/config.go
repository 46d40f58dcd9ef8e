package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"obra/internal/log"
)

type Config struct {
	// Database. When DatabaseURL is set the server backend is preferred;
	// EmbeddedPath is the SQLite file used otherwise.
	DatabaseURL  string
	EmbeddedPath string

	// Logging
	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		EmbeddedPath: getEnv("OBRA_DB_PATH", "./obra_database.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.DatabaseURL != "" {
		if parsedURL, err := url.Parse(c.DatabaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid database URL '%s': %v", c.DatabaseURL, err))
		} else if parsedURL.Scheme != "postgres" && parsedURL.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid database URL scheme '%s': must be 'postgres' or 'postgresql'", parsedURL.Scheme))
		}
	}

	if c.EmbeddedPath == "" {
		errors = append(errors, "embedded database path cannot be empty")
	} else {
		dir := filepath.Dir(c.EmbeddedPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
				}
			}
		}
	}

	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// SlogLevel returns the parsed log level, defaulting to info when the
// configured value is invalid.
func (c *Config) SlogLevel() slog.Level {
	return log.ParseLevel(c.LogLevel)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
