package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

// Synthesizer shells out to an external text-to-speech engine and writes WAV
// artifacts under the storage tree. The engine is not safe for concurrent
// use, so every synthesis request is serialized through one mutex no matter
// how many commands arrive at once.
type Synthesizer struct {
	mu      sync.Mutex
	dir     string
	command string
	logger  *slog.Logger

	// run is swapped out in tests.
	run func(ctx context.Context, command, outPath, text string) error
}

func NewSynthesizer(dir, command string, logger *slog.Logger) (*Synthesizer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create tts dir: %w", err)
	}
	return &Synthesizer{
		dir:     dir,
		command: command,
		logger:  logger,
		run:     runCommand,
	}, nil
}

func runCommand(ctx context.Context, command, outPath, text string) error {
	cmd := exec.CommandContext(ctx, command, "-w", outPath, text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w (%s)", command, err, out)
	}
	return nil
}

// Synthesize renders the text to a WAV file and returns its static asset
// path (relative, ready for the dashboard to fetch).
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := fmt.Sprintf("tts_%d.wav", time.Now().UnixMilli())
	outPath := filepath.Join(s.dir, name)

	if err := s.run(ctx, s.command, outPath, text); err != nil {
		return "", fmt.Errorf("synthesize speech: %w", err)
	}

	return "static/tts/" + name, nil
}

// CleanupOlderThan removes artifacts older than maxAge. Synthesis output is
// throwaway; a day-old file has long been played or abandoned.
func (s *Synthesizer) CleanupOlderThan(maxAge time.Duration) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read tts dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
				s.logger.Warn("failed to remove stale tts file",
					slog.String("file", entry.Name()),
					slog.Any("error", err),
				)
			}
		}
	}
	return nil
}
