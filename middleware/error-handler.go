package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/card-images/models"
	"github.com/rs/zerolog/log"
)

// ErrorHandler renders every error returned by a handler in the service's JSON envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		message = fe.Message
	case errors.Is(err, models.ErrNotFound):
		code = fiber.StatusNotFound
		message = "Not found"
	case errors.Is(err, models.ErrInvalidInput):
		code = fiber.StatusBadRequest
		message = err.Error()
	case errors.Is(err, models.ErrUnauthenticated):
		code = fiber.StatusUnauthorized
		message = "Could not validate credentials"
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	case errors.Is(err, models.ErrUploadFailed):
		message = "Couldn't upload image"
	case errors.Is(err, models.ErrBackendUnavailable):
		code = fiber.StatusServiceUnavailable
		message = "Service unavailable"
	}

	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Int("status", code).Msg("request failed")
	}

	return c.Status(code).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	})
}
