package config

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide logger. Production emits JSON at Info
// level; everything else gets human-readable text at Debug, with source
// locations in development.
func NewLogger(env string) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: env == "development",
	}

	if env == "production" {
		opts.Level = slog.LevelInfo
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}

	opts.Level = slog.LevelDebug
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
