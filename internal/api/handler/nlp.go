package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/patrolbot/hub/internal/domain"
	"github.com/patrolbot/hub/internal/events"
	"github.com/patrolbot/hub/internal/nlp"
)

// Speaker renders a spoken response and returns its static asset path.
type Speaker interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

type NLPHandler struct {
	interpreter *nlp.Interpreter
	speaker     Speaker
	bus         *events.Bus
	logger      *slog.Logger
}

func NewNLPHandler(interpreter *nlp.Interpreter, speaker Speaker, bus *events.Bus, logger *slog.Logger) *NLPHandler {
	return &NLPHandler{
		interpreter: interpreter,
		speaker:     speaker,
		bus:         bus,
		logger:      logger,
	}
}

type nlpRequest struct {
	Text string `json:"text"`
}

type nlpResponse struct {
	Intent string         `json:"intent"`
	Text   string         `json:"text"`
	Action string         `json:"action"`
	Data   map[string]any `json:"data,omitempty"`
	TTS    string         `json:"tts,omitempty"`
	OK     bool           `json:"ok"`
}

// Command POST /nlp - classify an operator command
func (h *NLPHandler) Command(c *fiber.Ctx) error {
	var req nlpRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return domain.ErrValidationFailed.WithError(errors.New("text is required"))
	}

	result := h.interpreter.Classify(c.Context(), text)

	// Speech is a nicety: a broken synth engine must not take /nlp down
	// with it.
	var tts string
	if h.speaker != nil {
		path, err := h.speaker.Synthesize(c.Context(), result.Text)
		if err != nil {
			h.logger.Warn("speech synthesis failed", slog.Any("error", err))
		} else {
			tts = path
		}
	}

	h.bus.Publish(domain.NLPEvent{
		Intent: result.Intent,
		Text:   result.Text,
		Action: result.Action,
		Data:   result.Data,
		TTS:    tts,
	})

	return c.JSON(nlpResponse{
		Intent: result.Intent,
		Text:   result.Text,
		Action: result.Action,
		Data:   result.Data,
		TTS:    tts,
		OK:     true,
	})
}
