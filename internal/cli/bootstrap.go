// Package cli provides common initialization for the obra command line
// tools: logging, .env loading, config validation and store opening.
package cli

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"obra/internal/config"
	"obra/internal/log"
	"obra/internal/storage"
)

// SetupLogger initializes structured logging at the given level and sets
// the result as the process default.
func SetupLogger(level string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: log.ComponentCLI,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenStore resolves a backend through the provider and opens it.
// Returns the provider and store or exits the process on failure.
func OpenStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (*storage.Provider, *storage.Store) {
	provider := storage.NewProvider(cfg.DatabaseURL, cfg.EmbeddedPath, logger)
	store, err := provider.Open(ctx)
	if err != nil {
		logger.Error("Failed to open database", log.FieldError, err)
		os.Exit(1)
	}
	return provider, store
}
