// Package cli holds the start-up steps shared by cmd/spendlog and
// cmd/spendlog-import.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"spendlog/internal/backend"
	"spendlog/internal/config"
	"spendlog/internal/log"
	"spendlog/internal/store"
)

// ConfigPathEnv names the variable that points at the YAML config file.
const ConfigPathEnv = "SPENDLOG_CONFIG"

const defaultConfigPath = "config.yaml"

// SetupLogger builds the application logger at the given level and makes
// it the slog default. An unknown level falls back to info with a warning.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	lvl, err := log.ParseLevel(level)
	cfg.Level = lvl
	logger := log.New(cfg)
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info logging", "error", err)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// ConfigPath returns $SPENDLOG_CONFIG or config.yaml.
func ConfigPath() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	return defaultConfigPath
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on failure.
func LoadAndValidateConfig() config.Config {
	path := ConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		log.FromContext(context.Background()).Error("Failed to load configuration", "error", err, "path", path)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.FromContext(context.Background()).Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenStore creates the configured backend and loads the expense list from
// it. Exits the process when the backend cannot be opened.
func OpenStore(ctx context.Context, logger *log.Logger, cfg config.Config) (*store.Store, *backend.BackendResult) {
	bcfg, err := backend.FromAppConfig(&cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger.WithComponent(log.ComponentStorage).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", bcfg.Type)
		os.Exit(1)
	}

	st := store.New(ctx, result.Slot, store.WithKey(cfg.Storage.Key))
	logger.Info("Loaded expenses", log.FieldCount, st.Len(), "backend", bcfg.Type.String())
	return st, result
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
