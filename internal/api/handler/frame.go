package handler

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/patrolbot/hub/internal/domain"
	"github.com/patrolbot/hub/internal/frame"
)

const maxFrameSize = 10 * 1024 * 1024 // 10MB

// FrameHandler ingests camera frames from the robot and serves them back to
// dashboards, either as a continuous MJPEG stream or as one-shot JSON.
type FrameHandler struct {
	frames   *frame.Hub
	interval time.Duration
	logger   *slog.Logger
}

func NewFrameHandler(frames *frame.Hub, interval time.Duration, logger *slog.Logger) *FrameHandler {
	return &FrameHandler{
		frames:   frames,
		interval: interval,
		logger:   logger,
	}
}

// Ingest POST /frame - replace the current frame
func (h *FrameHandler) Ingest(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("frame")
	if err != nil {
		return domain.ErrValidationFailed.WithError(errors.New("frame file is required"))
	}
	if fileHeader.Size > maxFrameSize {
		return domain.ErrValidationFailed.WithError(fmt.Errorf("frame exceeds %d bytes", maxFrameSize))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return domain.ErrBadRequest.WithError(err)
	}
	defer file.Close()

	jpeg, err := io.ReadAll(file)
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}

	// Malformed box JSON is a producer bug worth noting, but the frame
	// itself is still good: degrade to no detections rather than reject.
	boxes := []domain.DetectionBox{}
	if raw := c.FormValue("bounding_boxes"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &boxes); err != nil {
			h.logger.Warn("discarding malformed bounding boxes",
				slog.Any("error", err),
			)
			boxes = []domain.DetectionBox{}
		}
	}

	h.frames.Set(jpeg, boxes)

	return c.JSON(fiber.Map{
		"status":         "ok",
		"size":           len(jpeg),
		"face_count":     len(boxes),
		"bounding_boxes": boxes,
	})
}

// VideoFeed GET /video_feed - MJPEG stream at the configured cadence
func (h *FrameHandler) VideoFeed(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "multipart/x-mixed-replace; boundary="+frame.Boundary)
	c.Set(fiber.HeaderCacheControl, "no-cache")

	// The request context is cancelled when the client disconnects; a
	// failed flush ends the stream at the next tick either way.
	reqCtx := c.Context()
	reqCtx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		if err := h.frames.StreamMJPEG(reqCtx, w, h.interval); err != nil {
			h.logger.Debug("video feed closed", slog.Any("error", err))
		}
	}))

	return nil
}

// FrameData GET /frame_data - current frame as a base64 data URI
func (h *FrameHandler) FrameData(c *fiber.Ctx) error {
	snapshot, ok := h.frames.Snapshot()
	if !ok {
		return c.JSON(fiber.Map{
			"frame":          nil,
			"bounding_boxes": []domain.DetectionBox{},
			"face_count":     0,
		})
	}

	return c.JSON(fiber.Map{
		"frame":          "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(snapshot.JPEG),
		"bounding_boxes": snapshot.Boxes,
		"face_count":     len(snapshot.Boxes),
	})
}
