package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/patrolbot/hub/internal/domain"
)

const (
	serviceName    = "patrolbot-hub"
	serviceVersion = "0.1.0"
)

// Counter is the slice of the store the health handler needs.
type Counter interface {
	CountAlerts(ctx context.Context) (domain.AlertCounts, error)
}

// SubscriberCounter reports live stream consumers for the metrics document.
type SubscriberCounter interface {
	Len() int
}

type HealthHandler struct {
	counter     Counter
	subscribers SubscriberCounter
	// internalSubs is how many bus subscriptions belong to the hub itself
	// (the websocket bridge) rather than to external consumers.
	internalSubs int
	storagePath  string
}

func NewHealthHandler(counter Counter, subscribers SubscriberCounter, internalSubs int, storagePath string) *HealthHandler {
	return &HealthHandler{
		counter:      counter,
		subscribers:  subscribers,
		internalSubs: internalSubs,
		storagePath:  storagePath,
	}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Root GET / - service identity for anyone poking the robot's port
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":    serviceName,
		"version": serviceVersion,
		"status":  "running",
	})
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: serviceVersion,
	})
}

// Ready reports whether the store answers queries.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if _, err := h.counter.CountAlerts(c.Context()); err != nil {
		return domain.ErrInternal.WithError(err)
	}
	return c.JSON(HealthResponse{
		Status: "ready",
	})
}

// Metrics GET /metrics - operational counters for the dashboard
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	counts, err := h.counter.CountAlerts(c.Context())
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}

	subs := h.subscribers.Len() - h.internalSubs
	if subs < 0 {
		subs = 0
	}

	return c.JSON(fiber.Map{
		"alerts_total":          counts.Total,
		"alerts_unacknowledged": counts.Unacknowledged,
		"stream_subscribers":    subs,
		"storage_path":          h.storagePath,
	})
}
