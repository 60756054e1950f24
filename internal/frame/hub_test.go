package frame

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrolbot/hub/internal/domain"
)

func TestHub_EmptyUntilFirstFrame(t *testing.T) {
	hub := NewHub()

	snap, ok := hub.Snapshot()
	assert.False(t, ok)
	assert.Nil(t, snap)
}

func TestHub_LastWriteWins(t *testing.T) {
	hub := NewHub()

	hub.Set([]byte("first"), nil)
	hub.Set([]byte("second"), []domain.DetectionBox{{X: 1, Y: 2, Width: 3, Height: 4}})

	snap, ok := hub.Snapshot()
	require.True(t, ok)
	assert.Equal(t, []byte("second"), snap.JPEG)
	require.Len(t, snap.Boxes, 1)
	assert.Equal(t, 3.0, snap.Boxes[0].Width)
}

// Every writer tags its bytes and boxes with the same sequence number, so a
// torn read would show mismatched tags.
func TestHub_SnapshotNeverTorn(t *testing.T) {
	hub := NewHub()

	const writers = 8
	const writes = 200

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for n := 0; n < writes; n++ {
				tag := fmt.Sprintf("%d-%d", id, n)
				hub.Set([]byte(tag), []domain.DetectionBox{{Label: tag}})
			}
		}(i)
	}

	var readerWg sync.WaitGroup
	readerWg.Add(1)
	go func() {
		defer readerWg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			snap, ok := hub.Snapshot()
			if !ok {
				continue
			}
			if string(snap.JPEG) != snap.Boxes[0].Label {
				t.Errorf("torn snapshot: bytes %q paired with boxes %q", snap.JPEG, snap.Boxes[0].Label)
				return
			}
		}
	}()

	wg.Wait()
	close(stop)
	readerWg.Wait()

	snap, ok := hub.Snapshot()
	require.True(t, ok)
	assert.Equal(t, string(snap.JPEG), snap.Boxes[0].Label)
}

func TestHub_StreamMJPEG_WritesParts(t *testing.T) {
	hub := NewHub()
	hub.Set([]byte("jpegdata"), nil)

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := hub.StreamMJPEG(ctx, w, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	out := buf.String()
	assert.Contains(t, out, "--frame\r\nContent-Type: image/jpeg\r\n\r\njpegdata\r\n")
	// Slow producer: the same frame is retransmitted every tick.
	assert.Greater(t, strings.Count(out, "jpegdata"), 1)
}

func TestHub_StreamMJPEG_SkipsUntilFirstFrame(t *testing.T) {
	hub := NewHub()

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := hub.StreamMJPEG(ctx, w, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, buf.Len(), "nothing written before the first frame")
}
