package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lumapress/panel-service/internal/apperrors"
	"github.com/lumapress/panel-service/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
	authzService   *service.AuthzService
}

func NewAccountHandler(accountService *service.AccountService, authzService *service.AuthzService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		authzService:   authzService,
	}
}

// GetAccount returns the workspace
// GET /api/v1/accounts/:accountId
func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	accountID, err := pathUUID(c, "accountId")
	if err != nil {
		return respondError(c, err)
	}

	account, err := h.accountService.Get(c.Context(), accountID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(account)
}

// GetMembers lists the workspace members
// GET /api/v1/accounts/:accountId/members
func (h *AccountHandler) GetMembers(c *fiber.Ctx) error {
	accountID, err := pathUUID(c, "accountId")
	if err != nil {
		return respondError(c, err)
	}

	members, err := h.accountService.ListMembers(c.Context(), accountID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"members": members})
}

// GetSubscription returns the workspace subscription and plan
// GET /api/v1/accounts/:accountId/subscription
func (h *AccountHandler) GetSubscription(c *fiber.Ctx) error {
	accountID, err := pathUUID(c, "accountId")
	if err != nil {
		return respondError(c, err)
	}

	sub, err := h.accountService.GetSubscription(c.Context(), accountID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(sub)
}

// GetVisibility returns the caller's navigation and settings projections
// GET /api/v1/accounts/:accountId/visibility
func (h *AccountHandler) GetVisibility(c *fiber.Ctx) error {
	accountID, err := pathUUID(c, "accountId")
	if err != nil {
		return respondError(c, err)
	}
	userID, ok := localUUID(c, "user_id")
	if !ok {
		return respondError(c, apperrors.Forbidden("authentication required"))
	}

	visibility, err := h.authzService.Visibility(c.Context(), userID, accountID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(visibility)
}
