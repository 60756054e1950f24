package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/patrolbot/hub/internal/api"
	"github.com/patrolbot/hub/internal/config"
	"github.com/patrolbot/hub/internal/events"
	"github.com/patrolbot/hub/internal/frame"
	"github.com/patrolbot/hub/internal/nlp"
	"github.com/patrolbot/hub/internal/speech"
	"github.com/patrolbot/hub/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting patrol hub",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("store", cfg.StoreDriver),
	)

	// Storage tree for snapshots, whitelist samples, speech artifacts
	for _, dir := range []string{"snapshots", "whitelist", "tts"} {
		if err := os.MkdirAll(filepath.Join(cfg.StoragePath, dir), 0o755); err != nil {
			return fmt.Errorf("failed to create storage dir %s: %w", dir, err)
		}
	}

	// Open the alert store
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		Driver:      cfg.StoreDriver,
		SQLitePath:  cfg.SQLitePath,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("store close error", slog.Any("error", err))
		}
	}()

	// Speech synthesis (best-effort collaborator)
	synth, err := speech.NewSynthesizer(filepath.Join(cfg.StoragePath, "tts"), cfg.SpeechCommand, logger)
	if err != nil {
		return fmt.Errorf("failed to init speech synthesizer: %w", err)
	}

	go runMaintenance(ctx, st, synth, cfg.AlertRetention, logger)

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Store:             st,
		Frames:            frame.NewHub(),
		Bus:               events.NewBus(),
		Interpreter:       nlp.NewInterpreter(st),
		Speaker:           synth,
		APIKey:            cfg.APIKey,
		StoragePath:       cfg.StoragePath,
		FrameInterval:     cfg.FrameInterval,
		HeartbeatInterval: cfg.HeartbeatInterval,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	logger.Info("server stopped")

	return nil
}

// runMaintenance sweeps stale speech artifacts and, when a retention window
// is configured, expired alerts. One immediate pass, then hourly.
func runMaintenance(ctx context.Context, st store.Store, synth *speech.Synthesizer, retention time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		if err := synth.CleanupOlderThan(24 * time.Hour); err != nil {
			logger.Warn("tts cleanup failed", slog.Any("error", err))
		}

		if retention > 0 {
			cutoff := float64(time.Now().Add(-retention).UnixNano()) / 1e9
			purged, err := st.PurgeAlertsBefore(ctx, cutoff)
			if err != nil {
				logger.Warn("alert purge failed", slog.Any("error", err))
			} else if purged > 0 {
				logger.Info("purged expired alerts", slog.Int64("count", purged))
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
