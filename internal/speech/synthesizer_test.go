package speech

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSynthesizer(t *testing.T) *Synthesizer {
	t.Helper()
	s, err := NewSynthesizer(t.TempDir(), "espeak", slog.New(slog.NewTextHandler(os.Stderr, nil)))
	require.NoError(t, err)
	return s
}

func TestSynthesize_ReturnsStaticPath(t *testing.T) {
	s := newTestSynthesizer(t)

	var gotText string
	s.run = func(_ context.Context, _, outPath, text string) error {
		gotText = text
		return os.WriteFile(outPath, []byte("RIFF"), 0o644)
	}

	path, err := s.Synthesize(context.Background(), "intruder detected")
	require.NoError(t, err)

	assert.Equal(t, "intruder detected", gotText)
	assert.True(t, strings.HasPrefix(path, "static/tts/tts_"), "got %q", path)
	assert.True(t, strings.HasSuffix(path, ".wav"))

	_, err = os.Stat(filepath.Join(s.dir, filepath.Base(path)))
	assert.NoError(t, err)
}

func TestSynthesize_EngineFailure(t *testing.T) {
	s := newTestSynthesizer(t)
	s.run = func(context.Context, string, string, string) error {
		return errors.New("exit status 1")
	}

	path, err := s.Synthesize(context.Background(), "hello")
	assert.Error(t, err)
	assert.Empty(t, path)
}

func TestSynthesize_Serialized(t *testing.T) {
	s := newTestSynthesizer(t)

	var active, maxActive int32
	s.run = func(context.Context, string, string, string) error {
		cur := atomic.AddInt32(&active, 1)
		for {
			seen := atomic.LoadInt32(&maxActive)
			if cur <= seen || atomic.CompareAndSwapInt32(&maxActive, seen, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Synthesize(context.Background(), "concurrent")
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxActive), "engine invocations overlapped")
}

func TestCleanupOlderThan(t *testing.T) {
	s := newTestSynthesizer(t)

	stale := filepath.Join(s.dir, "tts_1.wav")
	fresh := filepath.Join(s.dir, "tts_2.wav")
	require.NoError(t, os.WriteFile(stale, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("b"), 0o644))

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	require.NoError(t, s.CleanupOlderThan(24*time.Hour))

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}
