package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lumapress/panel-service/internal/apperrors"
	"github.com/lumapress/panel-service/internal/config"
	"github.com/lumapress/panel-service/internal/domain"
	"github.com/lumapress/panel-service/internal/repository"
	"github.com/lumapress/panel-service/pkg/hash"
	"github.com/lumapress/panel-service/pkg/validator"
)

// RegistrationService orchestrates the staged signup flow: it owns the
// PendingRegistration lifecycle from the first form submission until finalize
// promotes it or expiry deletes it.
type RegistrationService struct {
	regRepo     repository.RegistrationRepository
	otpRepo     repository.OTPRepository
	userRepo    repository.UserRepository
	accountRepo repository.AccountRepository
	planRepo    repository.PlanRepository
	cfg         *config.Config
}

func NewRegistrationService(
	regRepo repository.RegistrationRepository,
	otpRepo repository.OTPRepository,
	userRepo repository.UserRepository,
	accountRepo repository.AccountRepository,
	planRepo repository.PlanRepository,
	cfg *config.Config,
) *RegistrationService {
	return &RegistrationService{
		regRepo:     regRepo,
		otpRepo:     otpRepo,
		userRepo:    userRepo,
		accountRepo: accountRepo,
		planRepo:    planRepo,
		cfg:         cfg,
	}
}

type StartRegistrationRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"required,max=100"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Password  string  `json:"password" validate:"required,min=8"`
	Consent   bool    `json:"consent" validate:"required"`
}

// RegistrationView is the projection returned to clients. It never carries
// the password hash.
type RegistrationView struct {
	ID            uuid.UUID               `json:"id"`
	Email         string                  `json:"email"`
	CurrentStep   domain.RegistrationStep `json:"current_step"`
	EmailVerified bool                    `json:"email_verified"`
	PhoneVerified bool                    `json:"phone_verified"`
	AccountName   *string                 `json:"account_name,omitempty"`
	AccountSlug   *string                 `json:"account_slug,omitempty"`
	PlanID        *uuid.UUID              `json:"plan_id,omitempty"`
	ExpiresAt     time.Time               `json:"expires_at"`
}

func viewOf(reg *domain.PendingRegistration) *RegistrationView {
	return &RegistrationView{
		ID:            reg.ID,
		Email:         reg.Email,
		CurrentStep:   reg.CurrentStep,
		EmailVerified: reg.EmailVerifiedAt != nil,
		PhoneVerified: reg.PhoneVerifiedAt != nil,
		AccountName:   reg.AccountName,
		AccountSlug:   reg.AccountSlug,
		PlanID:        reg.PlanID,
		ExpiresAt:     reg.ExpiresAt,
	}
}

// NormalizeEmail is the natural key of a staged registration.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Start creates or restarts a staged registration. Resubmitting personal data
// always returns the flow to VERIFY with both verification stamps cleared,
// and a fresh TTL. The email uniqueness constraint absorbs concurrent starts.
func (s *RegistrationService) Start(ctx context.Context, req StartRegistrationRequest) (*RegistrationView, error) {
	email := NormalizeEmail(req.Email)

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Internal("failed to check existing user", err)
	}
	if exists {
		return nil, apperrors.Conflict("a user with this email already exists")
	}

	if !req.Consent {
		return nil, apperrors.Validation("consent is required")
	}

	passwordHash, err := hash.Password(req.Password)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	now := time.Now()
	reg := &domain.PendingRegistration{
		ID:           uuid.New(),
		Email:        email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		PasswordHash: passwordHash,
		ConsentGiven: true,
		ConsentAt:    &now,
		CurrentStep:  domain.StepVerify,
		ExpiresAt:    now.Add(s.cfg.Registration.TTL),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.regRepo.Upsert(ctx, reg); err != nil {
		return nil, apperrors.Internal("failed to store registration", err)
	}

	log.Printf("[REGISTRATION] Staged registration %s for %s (step=%s)", reg.ID, reg.Email, reg.CurrentStep)
	return viewOf(reg), nil
}

// resolve loads a live registration. Expiry is enforced lazily here: an
// expired row (and its OTP challenge) is deleted on sight and the caller gets
// an EXPIRED signal, never a stale object. A permanent user appearing for the
// same email supersedes the staged row.
func (s *RegistrationService) resolve(ctx context.Context, id uuid.UUID) (*domain.PendingRegistration, error) {
	reg, err := s.regRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("registration not found")
	}

	if reg.Expired(time.Now()) {
		_ = s.otpRepo.DeleteByRegistration(ctx, reg.ID)
		if err := s.regRepo.Delete(ctx, reg.ID); err != nil {
			log.Printf("[REGISTRATION] Failed to delete expired registration %s: %v", reg.ID, err)
		}
		return nil, apperrors.Expired("registration expired, please restart signup")
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, reg.Email)
	if err != nil {
		return nil, apperrors.Internal("failed to check existing user", err)
	}
	if exists {
		_ = s.otpRepo.DeleteByRegistration(ctx, reg.ID)
		_ = s.regRepo.Delete(ctx, reg.ID)
		return nil, apperrors.Conflict("a user with this email already exists")
	}

	return reg, nil
}

// Resolve exposes registration lookup (with lazy expiry) to sibling services.
func (s *RegistrationService) Resolve(ctx context.Context, id uuid.UUID) (*domain.PendingRegistration, error) {
	return s.resolve(ctx, id)
}

// Status returns the caller-facing projection of a live registration.
func (s *RegistrationService) Status(ctx context.Context, id uuid.UUID) (*RegistrationView, error) {
	reg, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return viewOf(reg), nil
}

type AccountSetupRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
	Slug string `json:"slug" validate:"required,min=2,max=63,slug"`
}

// SetupAccount records the proposed workspace name and slug. The slug must be
// free on the accounts table and among other live registrations; finalize
// re-checks both because this check races with concurrent finalizes. A
// registration that lost that race comes back here with a new slug, so the
// handler accepts resubmission from any later step without regressing it.
func (s *RegistrationService) SetupAccount(ctx context.Context, id uuid.UUID, req AccountSetupRequest) (*RegistrationView, error) {
	reg, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	if !reg.ContactVerified() {
		return nil, apperrors.Validation("contact must be verified before workspace setup")
	}

	if !validator.ValidSlug(req.Slug) {
		return nil, apperrors.Validation("slug must be lowercase letters and digits separated by single hyphens")
	}

	taken, err := s.accountRepo.SlugExists(ctx, req.Slug)
	if err != nil {
		return nil, apperrors.Internal("failed to check slug", err)
	}
	if taken {
		return nil, apperrors.Conflict("slug is already taken")
	}

	other, err := s.regRepo.GetBySlug(ctx, req.Slug, reg.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to check slug", err)
	}
	if other != nil {
		return nil, apperrors.Conflict("slug is already reserved by another signup")
	}

	reg.AccountName = &req.Name
	reg.AccountSlug = &req.Slug
	reg.CurrentStep = reg.CurrentStep.AtLeast(domain.StepInterview)
	reg.UpdatedAt = time.Now()

	if err := s.regRepo.Update(ctx, reg); err != nil {
		return nil, apperrors.Internal("failed to store account setup", err)
	}

	return viewOf(reg), nil
}

type InterviewRequest struct {
	Answers string `json:"answers" validate:"required,max=8192"`
}

// SubmitInterview stores the free-form onboarding answers.
func (s *RegistrationService) SubmitInterview(ctx context.Context, id uuid.UUID, req InterviewRequest) (*RegistrationView, error) {
	reg, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	if reg.AccountName == nil || reg.AccountSlug == nil {
		return nil, apperrors.Validation("workspace setup must be completed first")
	}

	reg.InterviewAnswers = &req.Answers
	reg.CurrentStep = reg.CurrentStep.AtLeast(domain.StepPlan)
	reg.UpdatedAt = time.Now()

	if err := s.regRepo.Update(ctx, reg); err != nil {
		return nil, apperrors.Internal("failed to store interview answers", err)
	}

	return viewOf(reg), nil
}

type PlanSelectionRequest struct {
	PlanCode string `json:"plan_code" validate:"required,max=50"`
}

// SelectPlan resolves the human-facing plan code through the catalog and
// stores only the internal plan id.
func (s *RegistrationService) SelectPlan(ctx context.Context, id uuid.UUID, req PlanSelectionRequest) (*RegistrationView, error) {
	reg, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	if reg.InterviewAnswers == nil {
		return nil, apperrors.Validation("interview must be completed first")
	}

	plan, err := s.planRepo.GetByCode(ctx, req.PlanCode)
	if err != nil {
		return nil, apperrors.NotFound("plan not found")
	}

	reg.PlanID = &plan.ID
	reg.CurrentStep = reg.CurrentStep.AtLeast(domain.StepPayment)
	reg.UpdatedAt = time.Now()

	if err := s.regRepo.Update(ctx, reg); err != nil {
		return nil, apperrors.Internal("failed to store plan selection", err)
	}

	return viewOf(reg), nil
}

// ConfirmPayment records that the payment step was reached. Payment capture
// itself lives with the billing provider and is not modeled here.
func (s *RegistrationService) ConfirmPayment(ctx context.Context, id uuid.UUID) (*RegistrationView, error) {
	reg, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	if reg.CurrentStep != domain.StepPayment {
		return nil, apperrors.Validation("payment step has not been reached")
	}

	return viewOf(reg), nil
}
