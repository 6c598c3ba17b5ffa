package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const userLocal = "user_id"

// TokenVerifier resolves a bearer token to the id of the user it was issued to.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

func AuthMiddleware(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)

		var tokenStr string
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			tokenStr = strings.TrimSpace(authHeader[7:])
		}

		userID, err := verifier.Verify(tokenStr)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("rejected bearer token")
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "Could not validate credentials",
				"data":    nil,
			})
		}

		c.Locals(userLocal, userID)
		return c.Next()
	}
}

// CurrentUser returns the user id stored by AuthMiddleware.
func CurrentUser(c *fiber.Ctx) (int64, bool) {
	id, ok := c.Locals(userLocal).(int64)
	return id, ok
}
