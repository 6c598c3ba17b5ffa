package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const pingTimeout = time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	database      Pinger
	tokenProvider Pinger
}

func NewHealthHandler(database, tokenProvider Pinger) *HealthHandler {
	return &HealthHandler{database: database, tokenProvider: tokenProvider}
}

// Live handles GET /health/live
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON("OK")
}

// Ready handles GET /health/ready: the database first, then the token provider.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), pingTimeout)
	defer cancel()

	if err := h.database.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("readiness: database down")
		return fiber.NewError(fiber.StatusServiceUnavailable, "Database down")
	}
	if err := h.tokenProvider.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("readiness: token provider down")
		return fiber.NewError(fiber.StatusServiceUnavailable, "Token provider down")
	}

	return c.JSON(fiber.Map{
		"database":       "OK",
		"token_provider": "OK",
	})
}
