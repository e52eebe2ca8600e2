package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv        string `env:"APP_ENV" default:"development"`
	Port          string `env:"PORT" default:"8000"`
	WebsocketHost string `env:"WEBSOCKET_HOST" default:"ws://localhost:8000"`
	LogLevel      string `env:"LOG_LEVEL" default:"info"`
	LogFormat     string `env:"LOG_FORMAT" default:"text"`

	// HistoryLimit bounds the per-hub history buffer (ring). 0 means unbounded,
	// which is the behavior the service originally shipped with.
	HistoryLimit int `env:"HISTORY_LIMIT" default:"1000"`

	// MaxConnections limits channels per hub. 0 means unlimited.
	MaxConnections int `env:"MAX_CONNECTIONS" default:"0"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.HistoryLimit < 0 {
		return fmt.Errorf("HISTORY_LIMIT must not be negative, got %d", cfg.HistoryLimit)
	}
	if cfg.MaxConnections < 0 {
		return fmt.Errorf("MAX_CONNECTIONS must not be negative, got %d", cfg.MaxConnections)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be 'text' or 'json', got %q", cfg.LogFormat)
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %v", cfg.ShutdownTimeout)
	}
	return nil
}
