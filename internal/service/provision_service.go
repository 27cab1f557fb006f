package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/lumapress/panel-service/internal/apperrors"
	"github.com/lumapress/panel-service/internal/authz"
	"github.com/lumapress/panel-service/internal/config"
	"github.com/lumapress/panel-service/internal/domain"
	"github.com/lumapress/panel-service/internal/repository"
	"github.com/lumapress/panel-service/pkg/token"
)

// ProvisionService turns a fully staged registration into a permanent tenant.
// The whole promotion happens in one transaction through the provision
// repository: user, account, owner role, membership and subscription either
// all exist afterwards or none do.
type ProvisionService struct {
	provisionRepo repository.ProvisionRepository
	regSvc        *RegistrationService
	userRepo      repository.UserRepository
	planRepo      repository.PlanRepository
	sessionRepo   repository.SessionRepository
	tokenSvc      *token.Service
	cfg           *config.Config
}

func NewProvisionService(
	provisionRepo repository.ProvisionRepository,
	regSvc *RegistrationService,
	userRepo repository.UserRepository,
	planRepo repository.PlanRepository,
	sessionRepo repository.SessionRepository,
	tokenSvc *token.Service,
	cfg *config.Config,
) *ProvisionService {
	return &ProvisionService{
		provisionRepo: provisionRepo,
		regSvc:        regSvc,
		userRepo:      userRepo,
		planRepo:      planRepo,
		sessionRepo:   sessionRepo,
		tokenSvc:      tokenSvc,
		cfg:           cfg,
	}
}

type FinalizeResponse struct {
	AlreadyCompleted bool              `json:"already_completed,omitempty"`
	UserID           uuid.UUID         `json:"user_id"`
	AccountID        uuid.UUID         `json:"account_id"`
	AccountSlug      string            `json:"account_slug"`
	Tokens           *domain.TokenPair `json:"tokens,omitempty"`
}

// Finalize promotes the staged registration identified by the registration
// token. The email travels with the token so a retry after a successful
// commit (when the staged row is already gone) can be resolved to the user
// it produced instead of a spurious NOT_FOUND.
func (s *ProvisionService) Finalize(ctx context.Context, registrationID uuid.UUID, email string) (*FinalizeResponse, error) {
	if existing, err := s.userRepo.GetByEmail(ctx, NormalizeEmail(email)); err == nil {
		if existing.RegistrationStep == domain.StepCompleted {
			return s.completedResponse(ctx, existing)
		}
		return nil, apperrors.Conflict("a user with this email already exists")
	}

	reg, err := s.regSvc.Resolve(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	if reg.CurrentStep != domain.StepPayment {
		return nil, apperrors.Validation("registration has not reached the payment step")
	}
	if !reg.ContactVerified() {
		return nil, apperrors.Validation("contact has not been verified")
	}
	if reg.AccountName == nil || reg.AccountSlug == nil {
		return nil, apperrors.Validation("workspace setup is incomplete")
	}
	if reg.PlanID == nil {
		return nil, apperrors.Validation("no plan has been selected")
	}

	plan, err := s.planRepo.GetByID(ctx, *reg.PlanID)
	if err != nil {
		return nil, apperrors.NotFound("selected plan no longer exists")
	}

	graph := buildTenantGraph(reg, plan, s.cfg.Registration.SubscriptionPeriod)

	if err := s.provisionRepo.CreateTenant(ctx, graph); err != nil {
		return nil, err
	}

	log.Printf("[PROVISION] Registration %s finalized: user=%s account=%s", reg.ID, graph.User.ID, graph.Account.ID)
	return s.issueSession(ctx, graph.User, graph.Account)
}

// buildTenantGraph assembles the rows the finalize transaction will insert.
// The owner role carries the full capability catalog so ownership and the
// permission set never disagree.
func buildTenantGraph(reg *domain.PendingRegistration, plan *domain.Plan, period time.Duration) *domain.TenantGraph {
	now := time.Now()

	user := &domain.User{
		ID:               uuid.New(),
		Email:            reg.Email,
		FirstName:        reg.FirstName,
		LastName:         reg.LastName,
		Phone:            reg.Phone,
		PasswordHash:     reg.PasswordHash,
		Status:           domain.UserStatusActive,
		RegistrationStep: domain.StepCompleted,
		EmailVerifiedAt:  reg.EmailVerifiedAt,
		PhoneVerifiedAt:  reg.PhoneVerifiedAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	account := &domain.Account{
		ID:           uuid.New(),
		Name:         *reg.AccountName,
		Slug:         *reg.AccountSlug,
		BillingEmail: reg.Email,
		GeneralEmail: reg.Email,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ownerRole := &domain.Role{
		ID:           uuid.New(),
		AccountID:    account.ID,
		Name:         "Owner",
		Description:  "Full access to every module",
		Permissions:  pq.StringArray(authz.AllKeys()),
		IsSystemRole: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	membership := &domain.AccountMember{
		ID:        uuid.New(),
		AccountID: account.ID,
		UserID:    user.ID,
		RoleID:    ownerRole.ID,
		IsOwner:   true,
		Status:    domain.MemberStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	subscription := &domain.Subscription{
		ID:          uuid.New(),
		AccountID:   account.ID,
		PlanID:      plan.ID,
		Status:      domain.SubscriptionStatusActive,
		PeriodStart: now,
		PeriodEnd:   now.Add(period),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return &domain.TenantGraph{
		RegistrationID: reg.ID,
		User:           user,
		Account:        account,
		OwnerRole:      ownerRole,
		Membership:     membership,
		Subscription:   subscription,
	}
}

// completedResponse serves a finalize retry for a user that already exists.
func (s *ProvisionService) completedResponse(ctx context.Context, user *domain.User) (*FinalizeResponse, error) {
	if user.LastAccountID == nil {
		return nil, apperrors.Internal("completed user has no account", errors.New("last_account_id is null"))
	}
	return &FinalizeResponse{
		AlreadyCompleted: true,
		UserID:           user.ID,
		AccountID:        *user.LastAccountID,
	}, nil
}

// issueSession logs the freshly created owner in so the client lands in the
// panel without a second round trip.
func (s *ProvisionService) issueSession(ctx context.Context, user *domain.User, account *domain.Account) (*FinalizeResponse, error) {
	tokens, err := s.tokenSvc.GenerateTokenPair(user)
	if err != nil {
		return nil, apperrors.Internal("failed to generate tokens", err)
	}

	now := time.Now()
	session := &domain.Session{
		ID:               uuid.New(),
		UserID:           user.ID,
		RefreshTokenHash: hashToken(tokens.RefreshToken),
		ExpiresAt:        now.Add(s.cfg.Token.RefreshTokenExpiry),
		CreatedAt:        now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, apperrors.Internal("failed to create session", err)
	}

	return &FinalizeResponse{
		UserID:      user.ID,
		AccountID:   account.ID,
		AccountSlug: account.Slug,
		Tokens:      tokens,
	}, nil
}
