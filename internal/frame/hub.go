package frame

import (
	"bufio"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrolbot/hub/internal/domain"
)

// Boundary separates parts in the MJPEG multipart stream.
const Boundary = "frame"

// Snapshot is the most recent camera frame with its detections. A snapshot
// is immutable once published; callers must not mutate its fields.
type Snapshot struct {
	JPEG  []byte
	Boxes []domain.DetectionBox
}

// Hub holds the single current frame. New frames replace the old one
// wholesale; there is no queue, so a slow consumer always sees the freshest
// frame and a bursty producer loses intermediates.
type Hub struct {
	mu      sync.RWMutex
	current *Snapshot
}

func NewHub() *Hub {
	return &Hub{}
}

// Set atomically replaces the current snapshot. The critical section is a
// pointer swap; the caller does any decoding outside it.
func (h *Hub) Set(jpeg []byte, boxes []domain.DetectionBox) {
	snap := &Snapshot{JPEG: jpeg, Boxes: boxes}
	h.mu.Lock()
	h.current = snap
	h.mu.Unlock()
}

// Snapshot returns the current frame and detections as one consistent pair.
// The bool is false before the first frame arrives.
func (h *Hub) Snapshot() (*Snapshot, bool) {
	h.mu.RLock()
	snap := h.current
	h.mu.RUnlock()
	return snap, snap != nil
}

// StreamMJPEG writes multipart JPEG parts to w at the given cadence until
// ctx is cancelled or the writer fails (the usual disconnect signal). The
// same frame is retransmitted when the producer is slower than the cadence.
func (h *Hub) StreamMJPEG(ctx context.Context, w *bufio.Writer, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		snap, ok := h.Snapshot()
		if !ok {
			continue
		}

		if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\n\r\n", Boundary); err != nil {
			return err
		}
		if _, err := w.Write(snap.JPEG); err != nil {
			return err
		}
		if _, err := w.WriteString("\r\n"); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
}
