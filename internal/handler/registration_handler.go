package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lumapress/panel-service/internal/apperrors"
	"github.com/lumapress/panel-service/internal/service"
	"github.com/lumapress/panel-service/pkg/token"
	"github.com/lumapress/panel-service/pkg/validator"
)

// RegistrationHandler exposes the staged signup flow. Every step after the
// initial form is authenticated by the registration token issued there.
type RegistrationHandler struct {
	regService       *service.RegistrationService
	otpService       *service.OtpService
	provisionService *service.ProvisionService
	tokenService     *token.Service
	validator        *validator.Validator
}

func NewRegistrationHandler(
	regService *service.RegistrationService,
	otpService *service.OtpService,
	provisionService *service.ProvisionService,
	tokenService *token.Service,
	validator *validator.Validator,
) *RegistrationHandler {
	return &RegistrationHandler{
		regService:       regService,
		otpService:       otpService,
		provisionService: provisionService,
		tokenService:     tokenService,
		validator:        validator,
	}
}

// Start handles the signup form submission
// POST /api/v1/signup
func (h *RegistrationHandler) Start(c *fiber.Ctx) error {
	var req service.StartRegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	view, err := h.regService.Start(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}

	regToken, err := h.tokenService.GenerateRegistrationToken(view.ID, view.Email, view.ExpiresAt)
	if err != nil {
		return respondError(c, apperrors.Internal("failed to issue registration token", err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"registration":       view,
		"registration_token": regToken,
	})
}

// Status returns the caller's registration state
// GET /api/v1/signup/status
func (h *RegistrationHandler) Status(c *fiber.Ctx) error {
	regID, ok := localUUID(c, "registration_id")
	if !ok {
		return respondError(c, apperrors.Forbidden("registration token required"))
	}

	view, err := h.regService.Status(c.Context(), regID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(view)
}

// IssueOTP sends a verification code; calling it again resends a fresh one
// POST /api/v1/signup/otp
func (h *RegistrationHandler) IssueOTP(c *fiber.Ctx) error {
	regID, ok := localUUID(c, "registration_id")
	if !ok {
		return respondError(c, apperrors.Forbidden("registration token required"))
	}

	var req service.IssueOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	resp, err := h.otpService.Issue(c.Context(), regID, req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// VerifyOTP checks a submitted code
// POST /api/v1/signup/otp/verify
func (h *RegistrationHandler) VerifyOTP(c *fiber.Ctx) error {
	regID, ok := localUUID(c, "registration_id")
	if !ok {
		return respondError(c, apperrors.Forbidden("registration token required"))
	}

	var req service.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	resp, err := h.otpService.Verify(c.Context(), regID, req)
	if err != nil {
		return respondError(c, err)
	}

	status := fiber.StatusOK
	if !resp.Verified {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(resp)
}

// SetupAccount records the workspace name and slug
// POST /api/v1/signup/account
func (h *RegistrationHandler) SetupAccount(c *fiber.Ctx) error {
	regID, ok := localUUID(c, "registration_id")
	if !ok {
		return respondError(c, apperrors.Forbidden("registration token required"))
	}

	var req service.AccountSetupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	view, err := h.regService.SetupAccount(c.Context(), regID, req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(view)
}

// Interview stores the onboarding questionnaire answers
// POST /api/v1/signup/interview
func (h *RegistrationHandler) Interview(c *fiber.Ctx) error {
	regID, ok := localUUID(c, "registration_id")
	if !ok {
		return respondError(c, apperrors.Forbidden("registration token required"))
	}

	var req service.InterviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	view, err := h.regService.SubmitInterview(c.Context(), regID, req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(view)
}

// SelectPlan records the chosen plan
// POST /api/v1/signup/plan
func (h *RegistrationHandler) SelectPlan(c *fiber.Ctx) error {
	regID, ok := localUUID(c, "registration_id")
	if !ok {
		return respondError(c, apperrors.Forbidden("registration token required"))
	}

	var req service.PlanSelectionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	view, err := h.regService.SelectPlan(c.Context(), regID, req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(view)
}

// ConfirmPayment acknowledges the payment step
// POST /api/v1/signup/payment
func (h *RegistrationHandler) ConfirmPayment(c *fiber.Ctx) error {
	regID, ok := localUUID(c, "registration_id")
	if !ok {
		return respondError(c, apperrors.Forbidden("registration token required"))
	}

	view, err := h.regService.ConfirmPayment(c.Context(), regID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(view)
}

// Finalize promotes the registration into a permanent tenant
// POST /api/v1/signup/finalize
func (h *RegistrationHandler) Finalize(c *fiber.Ctx) error {
	regID, ok := localUUID(c, "registration_id")
	if !ok {
		return respondError(c, apperrors.Forbidden("registration token required"))
	}
	email, _ := c.Locals("registration_email").(string)

	resp, err := h.provisionService.Finalize(c.Context(), regID, email)
	if err != nil {
		return respondError(c, err)
	}

	status := fiber.StatusCreated
	if resp.AlreadyCompleted {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(resp)
}
