package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/lumapress/panel-service/internal/apperrors"
	"github.com/lumapress/panel-service/internal/authz"
	"github.com/lumapress/panel-service/internal/service"
)

// RequirePermission guards an account-scoped route with a module/capability
// check. It expects AuthMiddleware to have run and the route to carry an
// :accountId parameter.
func RequirePermission(authzService *service.AuthzService, m authz.Module, c authz.Capability) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		userID, ok := ctx.Locals("user_id").(uuid.UUID)
		if !ok {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}

		accountID, err := uuid.Parse(ctx.Params("accountId"))
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "accountId must be a valid UUID",
			})
		}

		if err := authzService.Authorize(ctx.Context(), userID, accountID, m, c); err != nil {
			return ctx.Status(apperrors.HTTPStatus(apperrors.CodeOf(err))).JSON(fiber.Map{
				"error": apperrors.MessageOf(err),
			})
		}

		ctx.Locals("account_id", accountID)
		return ctx.Next()
	}
}
