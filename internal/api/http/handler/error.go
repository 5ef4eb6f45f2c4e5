package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/dtroode/accounts-server/internal/apperrors"
	"github.com/dtroode/accounts-server/internal/logger"
)

type messageResponse struct {
	Message string `json:"message"`
}

// ErrorHandler renders every failure as {"message": ...}. Errors that are not
// API errors are logged and reported as a generic internal error.
func ErrorHandler(logger *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(messageResponse{Message: fiberErr.Message})
		}

		apiErr := apperrors.Public(err)
		if apiErr.Kind == apperrors.KindInternal {
			logger.Error("HTTP handler: internal error",
				"method", c.Method(),
				"path", c.Path(),
				"error", err.Error())
		}

		return c.Status(apiErr.HTTPStatus).JSON(messageResponse{Message: apiErr.Message})
	}
}
