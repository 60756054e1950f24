package handler

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/patrolbot/hub/internal/domain"
	"github.com/patrolbot/hub/internal/events"
)

// StreamHandler serves the server-sent-events feed. Every connection gets
// its own bus subscription; a quiet bus turns into heartbeats so that dead
// connections are discovered within one heartbeat interval.
type StreamHandler struct {
	bus       *events.Bus
	heartbeat time.Duration
	logger    *slog.Logger
}

func NewStreamHandler(bus *events.Bus, heartbeat time.Duration, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		bus:       bus,
		heartbeat: heartbeat,
		logger:    logger,
	}
}

// Events GET /stream
func (h *StreamHandler) Events(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	ip := c.IP()
	h.logger.Debug("event stream opened", slog.String("ip", ip))

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		sub := h.bus.Subscribe()
		defer func() {
			h.bus.Unsubscribe(sub)
			h.logger.Debug("event stream closed", slog.String("ip", ip))
		}()

		if err := writeSSE(w, domain.ConnectedEvent{Timestamp: unixSeconds()}); err != nil {
			return
		}

		for {
			event, ok := sub.Receive(h.heartbeat)
			if !ok {
				if sub.Closed() {
					return
				}
				// Timeout, not removal: the heartbeat doubles as the
				// liveness probe, a gone client fails the write.
				event = domain.HeartbeatEvent{Timestamp: unixSeconds()}
			}

			if err := writeSSE(w, event); err != nil {
				return
			}
		}
	}))

	return nil
}

func writeSSE(w *bufio.Writer, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := w.WriteString("data: " + string(data) + "\n\n"); err != nil {
		return err
	}
	return w.Flush()
}

func unixSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
