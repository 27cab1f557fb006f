package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lumapress/panel-service/internal/service"
)

// PlanHandler serves the public plan catalog consumed by the signup flow.
type PlanHandler struct {
	accountService *service.AccountService
}

func NewPlanHandler(accountService *service.AccountService) *PlanHandler {
	return &PlanHandler{accountService: accountService}
}

// GetPlans lists active plans
// GET /api/v1/plans
func (h *PlanHandler) GetPlans(c *fiber.Ctx) error {
	plans, err := h.accountService.ListPlans(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"plans": plans})
}
