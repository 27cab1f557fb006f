package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lumapress/panel-service/internal/domain"
	"github.com/lumapress/panel-service/pkg/token"
)

// RegistrationMiddleware validates the registration token issued by the signup
// form and exposes the registration identity to the step handlers.
func RegistrationMiddleware(tokenService *token.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or malformed authorization header",
			})
		}

		claims, err := tokenService.Validate(raw)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid registration token",
			})
		}

		if claims.TokenType != domain.TokenTypeRegistration || claims.RegistrationID == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token type",
			})
		}

		c.Locals("registration_id", *claims.RegistrationID)
		c.Locals("registration_email", claims.Email)

		return c.Next()
	}
}
