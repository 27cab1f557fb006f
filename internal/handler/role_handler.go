package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lumapress/panel-service/internal/service"
	"github.com/lumapress/panel-service/pkg/validator"
)

// RoleHandler manages account roles. The authorization middleware has already
// verified the caller's ROLES permission and account scope.
type RoleHandler struct {
	roleService *service.RoleService
	validator   *validator.Validator
}

func NewRoleHandler(roleService *service.RoleService, validator *validator.Validator) *RoleHandler {
	return &RoleHandler{
		roleService: roleService,
		validator:   validator,
	}
}

// CreateRole creates a custom role
// POST /api/v1/accounts/:accountId/roles
func (h *RoleHandler) CreateRole(c *fiber.Ctx) error {
	accountID, err := pathUUID(c, "accountId")
	if err != nil {
		return respondError(c, err)
	}

	var req service.CreateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	role, err := h.roleService.Create(c.Context(), accountID, req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(role)
}

// GetRoles lists the account's roles
// GET /api/v1/accounts/:accountId/roles
func (h *RoleHandler) GetRoles(c *fiber.Ctx) error {
	accountID, err := pathUUID(c, "accountId")
	if err != nil {
		return respondError(c, err)
	}

	roles, err := h.roleService.List(c.Context(), accountID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"roles": roles})
}

// GetRole returns one role
// GET /api/v1/accounts/:accountId/roles/:roleId
func (h *RoleHandler) GetRole(c *fiber.Ctx) error {
	accountID, err := pathUUID(c, "accountId")
	if err != nil {
		return respondError(c, err)
	}
	roleID, err := pathUUID(c, "roleId")
	if err != nil {
		return respondError(c, err)
	}

	role, err := h.roleService.Get(c.Context(), accountID, roleID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(role)
}

// UpdateRole updates a role's name, description and permissions
// PUT /api/v1/accounts/:accountId/roles/:roleId
func (h *RoleHandler) UpdateRole(c *fiber.Ctx) error {
	accountID, err := pathUUID(c, "accountId")
	if err != nil {
		return respondError(c, err)
	}
	roleID, err := pathUUID(c, "roleId")
	if err != nil {
		return respondError(c, err)
	}

	var req service.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	role, err := h.roleService.Update(c.Context(), accountID, roleID, req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(role)
}

// DeleteRole removes a custom role
// DELETE /api/v1/accounts/:accountId/roles/:roleId
func (h *RoleHandler) DeleteRole(c *fiber.Ctx) error {
	accountID, err := pathUUID(c, "accountId")
	if err != nil {
		return respondError(c, err)
	}
	roleID, err := pathUUID(c, "roleId")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.roleService.Delete(c.Context(), accountID, roleID); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "role deleted"})
}

// AssignRole changes a member's role
// PUT /api/v1/accounts/:accountId/members/:userId/role/:roleId
func (h *RoleHandler) AssignRole(c *fiber.Ctx) error {
	accountID, err := pathUUID(c, "accountId")
	if err != nil {
		return respondError(c, err)
	}
	userID, err := pathUUID(c, "userId")
	if err != nil {
		return respondError(c, err)
	}
	roleID, err := pathUUID(c, "roleId")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.roleService.AssignToMember(c.Context(), accountID, userID, roleID); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "role assigned"})
}
