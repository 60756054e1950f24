package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"8000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Security
	APIKey string `envconfig:"API_KEY" required:"true"`

	// Storage
	StoragePath string `envconfig:"STORAGE_PATH" default:"./storage"`

	// Store backend: sqlite (embedded, default) or postgres
	StoreDriver string `envconfig:"STORE_DRIVER" default:"sqlite"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	SQLitePath  string `envconfig:"SQLITE_PATH"`

	// Streaming
	FrameInterval     time.Duration `envconfig:"FRAME_INTERVAL" default:"33ms"`
	HeartbeatInterval time.Duration `envconfig:"HEARTBEAT_INTERVAL" default:"30s"`

	// Speech synthesis
	SpeechCommand string `envconfig:"SPEECH_COMMAND" default:"espeak"`

	// Maintenance. Zero retention keeps alerts forever.
	AlertRetention time.Duration `envconfig:"ALERT_RETENTION" default:"0"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = filepath.Join(cfg.StoragePath, "hub.db")
	}
	if cfg.StoreDriver == "postgres" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("load config: DATABASE_URL is required for the postgres store")
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
