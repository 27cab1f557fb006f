package handler

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/lumapress/panel-service/internal/apperrors"
)

// respondError maps a classified service error onto its HTTP status. Internal
// details are logged, never exposed.
func respondError(c *fiber.Ctx, err error) error {
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeInternal {
		log.Printf("[HTTP] %s %s failed: %v", c.Method(), c.Path(), err)
	}

	return c.Status(apperrors.HTTPStatus(code)).JSON(fiber.Map{
		"code":  code,
		"error": apperrors.MessageOf(err),
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"code":  apperrors.CodeValidation,
		"error": message,
	})
}

// pathUUID parses a UUID route parameter.
func pathUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperrors.Validation(name + " must be a valid UUID")
	}
	return id, nil
}

// localUUID reads a uuid stored in fiber locals by the middleware chain.
func localUUID(c *fiber.Ctx, key string) (uuid.UUID, bool) {
	id, ok := c.Locals(key).(uuid.UUID)
	return id, ok
}
