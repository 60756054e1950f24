package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/patrolbot/hub/internal/domain"
	"github.com/patrolbot/hub/internal/events"
	"github.com/patrolbot/hub/internal/store"
)

// AlertHandler persists detection alerts from the robot and serves the
// dashboard's alert views.
type AlertHandler struct {
	store       store.Store
	bus         *events.Bus
	storagePath string
	logger      *slog.Logger
}

func NewAlertHandler(st store.Store, bus *events.Bus, storagePath string, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{
		store:       st,
		bus:         bus,
		storagePath: storagePath,
		logger:      logger,
	}
}

// Create POST /alert - ingest one alert, with an optional snapshot image
func (h *AlertHandler) Create(c *fiber.Ctx) error {
	payload := c.FormValue("payload")
	if payload == "" {
		return domain.ErrValidationFailed.WithError(errors.New("payload field is required"))
	}

	var alert domain.Alert
	if err := json.Unmarshal([]byte(payload), &alert); err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	// The snapshot file is named after the alert id, so the id has to exist
	// before the insert when a snapshot came along.
	if fileHeader, err := c.FormFile("snapshot"); err == nil {
		if alert.ID == "" {
			alert.ID = store.NewAlertID(time.Now())
		}

		dir := filepath.Join(h.storagePath, "snapshots")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return domain.ErrInternal.WithError(err)
		}

		name := alert.ID + ".jpg"
		if err := c.SaveFile(fileHeader, filepath.Join(dir, name)); err != nil {
			return domain.ErrInternal.WithError(err)
		}

		ref := "static/snapshots/" + name
		alert.SnapshotPath = &ref
	}

	id, err := h.store.InsertAlert(c.Context(), &alert)
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}

	// Insert and broadcast are two separate steps: a subscriber that drops
	// the event still finds the alert via GET /alerts.
	h.bus.Publish(domain.AlertEvent{Alert: alert})

	return c.JSON(fiber.Map{"id": id})
}

// List GET /alerts - filtered, paginated, newest first
func (h *AlertHandler) List(c *fiber.Ctx) error {
	filter := store.QueryFilter{
		Limit:  c.QueryInt("limit", store.DefaultQueryLimit),
		Offset: c.QueryInt("offset", 0),
	}

	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if raw := c.Query("acknowledged"); raw != "" {
		acked, err := strconv.ParseBool(raw)
		if err != nil {
			return domain.ErrValidationFailed.WithError(errors.New("acknowledged must be true or false"))
		}
		filter.Acknowledged = &acked
	}

	alerts, err := h.store.QueryAlerts(c.Context(), filter)
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}
	if alerts == nil {
		alerts = []domain.Alert{}
	}

	return c.JSON(fiber.Map{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// Get GET /alerts/:id
func (h *AlertHandler) Get(c *fiber.Ctx) error {
	alert, err := h.store.GetAlertByID(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(alert)
}

// Acknowledge POST /alerts/:id/ack - idempotent; the broadcast fires only
// on the first acknowledgement.
func (h *AlertHandler) Acknowledge(c *fiber.Ctx) error {
	id := c.Params("id")

	changed, err := h.store.AcknowledgeAlert(c.Context(), id)
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}

	if !changed {
		// Either the alert does not exist or it was already acknowledged;
		// the store reports both the same way.
		if _, err := h.store.GetAlertByID(c.Context(), id); err != nil {
			return err
		}
	} else {
		h.bus.Publish(domain.AckEvent{AlertID: id})
	}

	return c.JSON(fiber.Map{
		"status":   "acknowledged",
		"alert_id": id,
	})
}
