package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/patrolbot/hub/internal/domain"
	"github.com/patrolbot/hub/internal/store"
)

// WhitelistHandler manages the set of known-friendly people. Sample images
// land under the storage tree; the store records their static refs.
type WhitelistHandler struct {
	store       store.Store
	storagePath string
	logger      *slog.Logger
}

func NewWhitelistHandler(st store.Store, storagePath string, logger *slog.Logger) *WhitelistHandler {
	return &WhitelistHandler{
		store:       st,
		storagePath: storagePath,
		logger:      logger,
	}
}

// Add POST /whitelist/add - multipart name + sample images
func (h *WhitelistHandler) Add(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		return domain.ErrValidationFailed.WithError(errors.New("name is required"))
	}

	form, err := c.MultipartForm()
	if err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	files := form.File["images"]
	if len(files) == 0 {
		return domain.ErrValidationFailed.WithError(errors.New("at least one image is required"))
	}

	dir := filepath.Join(h.storagePath, "whitelist")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.ErrInternal.WithError(err)
	}

	slug := sanitizeName(name)
	if slug == "" {
		// Names with no ASCII alphanumerics slug to nothing; give them a
		// random slug so their sample files stay distinct.
		slug = uuid.NewString()[:8]
	}
	refs := make([]string, 0, len(files))
	for i, fileHeader := range files {
		ext := filepath.Ext(fileHeader.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		fileName := fmt.Sprintf("%s_%d%s", slug, i, ext)

		if err := c.SaveFile(fileHeader, filepath.Join(dir, fileName)); err != nil {
			return domain.ErrInternal.WithError(err)
		}
		refs = append(refs, "static/whitelist/"+fileName)
	}

	id, err := h.store.UpsertWhitelistPerson(c.Context(), name, refs)
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}

	return c.JSON(fiber.Map{
		"id":     id,
		"name":   name,
		"images": refs,
		"count":  len(refs),
	})
}

// List GET /whitelist
func (h *WhitelistHandler) List(c *fiber.Ctx) error {
	people, err := h.store.ListWhitelist(c.Context())
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}
	if people == nil {
		people = []domain.WhitelistPerson{}
	}

	return c.JSON(fiber.Map{
		"whitelist": people,
		"count":     len(people),
	})
}

// Refresh POST /whitelist/refresh - re-reads the whitelist so the robot can
// pick up entries added while it was offline.
func (h *WhitelistHandler) Refresh(c *fiber.Ctx) error {
	people, err := h.store.ListWhitelist(c.Context())
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}

	return c.JSON(fiber.Map{
		"status": "refreshed",
		"count":  len(people),
	})
}

// sanitizeName turns a display name into a filesystem-safe slug.
func sanitizeName(name string) string {
	slug := strings.ToLower(name)
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, slug)
	return strings.Trim(slug, "_")
}
