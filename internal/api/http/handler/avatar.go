package handler

import (
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/model"
)

var errAvatarNotFound = fiber.NewError(fiber.StatusNotFound, "Not found")

// Avatars serves stored avatar images.
type Avatars struct {
	storage model.Storage
	logger  *logger.Logger
}

// NewAvatars creates a new Avatars handler.
func NewAvatars(storage model.Storage, logger *logger.Logger) *Avatars {
	return &Avatars{storage: storage, logger: logger}
}

// Get handles GET /avatars/:name.
func (h *Avatars) Get(c *fiber.Ctx) error {
	name := c.Params("name")

	exists, err := h.storage.Exists(c.UserContext(), name)
	if err != nil {
		h.logger.Debug("Avatars handler: lookup failed",
			"name", name,
			"error", err.Error())
		return errAvatarNotFound
	}
	if !exists {
		return errAvatarNotFound
	}

	reader, err := h.storage.Download(c.UserContext(), name)
	if err != nil {
		return err
	}

	if ext := filepath.Ext(name); ext != "" {
		c.Type(ext)
	}
	return c.SendStream(reader)
}
