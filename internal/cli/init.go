// Package cli consolidates the initialization shared by cmd/vstack and
// cmd/vstack-worker: env loading, logging, config validation and the
// storage backend selection.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"vstack/internal/config"
	applog "vstack/internal/log"
	"vstack/internal/storage"
)

// SetupLogger initializes structured logging for the given component and
// installs it as the process default. LOG_LEVEL selects the level.
func SetupLogger(component string) *applog.Logger {
	logger := applog.New(applog.Config{Level: applog.ParseLevel(os.Getenv("LOG_LEVEL"))})
	logger = logger.WithComponent(component)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it, exiting the
// process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenStore selects the storage backend from the configuration.
func OpenStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, err
		}
		slog.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
		return repo, nil
	default:
		slog.Info("Initialized memory backend")
		return storage.NewMemoryStore(), nil
	}
}
