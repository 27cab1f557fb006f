package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/lumapress/panel-service/internal/apperrors"
	"github.com/lumapress/panel-service/internal/domain"
	"github.com/lumapress/panel-service/internal/repository"
)

// AccountService exposes read access to a tenant workspace: the account
// itself, its members and its subscription.
type AccountService struct {
	accountRepo repository.AccountRepository
	userRepo    repository.UserRepository
	roleRepo    repository.RoleRepository
	planRepo    repository.PlanRepository
}

func NewAccountService(
	accountRepo repository.AccountRepository,
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	planRepo repository.PlanRepository,
) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		userRepo:    userRepo,
		roleRepo:    roleRepo,
		planRepo:    planRepo,
	}
}

// Get returns the account by id.
func (s *AccountService) Get(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, apperrors.NotFound("account not found")
	}
	return account, nil
}

// MemberView joins a membership with its user identity and role name.
type MemberView struct {
	UserID    uuid.UUID           `json:"user_id"`
	Email     string              `json:"email"`
	FirstName string              `json:"first_name"`
	LastName  string              `json:"last_name"`
	RoleID    uuid.UUID           `json:"role_id"`
	RoleName  string              `json:"role_name"`
	IsOwner   bool                `json:"is_owner"`
	Status    domain.MemberStatus `json:"status"`
}

// ListMembers returns the account's members with their users and roles
// resolved.
func (s *AccountService) ListMembers(ctx context.Context, accountID uuid.UUID) ([]*MemberView, error) {
	members, err := s.accountRepo.ListMembers(ctx, accountID)
	if err != nil {
		return nil, apperrors.Internal("failed to list members", err)
	}

	views := make([]*MemberView, 0, len(members))
	for _, m := range members {
		view := &MemberView{
			UserID:  m.UserID,
			RoleID:  m.RoleID,
			IsOwner: m.IsOwner,
			Status:  m.Status,
		}
		if user, err := s.userRepo.GetByID(ctx, m.UserID); err == nil {
			view.Email = user.Email
			view.FirstName = user.FirstName
			view.LastName = user.LastName
		}
		if role, err := s.roleRepo.GetByID(ctx, m.RoleID); err == nil {
			view.RoleName = role.Name
		}
		views = append(views, view)
	}

	return views, nil
}

// SubscriptionView joins the account subscription with its plan.
type SubscriptionView struct {
	Subscription *domain.Subscription `json:"subscription"`
	Plan         *domain.Plan         `json:"plan"`
}

// GetSubscription returns the account's subscription and its plan.
func (s *AccountService) GetSubscription(ctx context.Context, accountID uuid.UUID) (*SubscriptionView, error) {
	sub, err := s.accountRepo.GetSubscription(ctx, accountID)
	if err != nil {
		return nil, apperrors.NotFound("account has no subscription")
	}

	plan, err := s.planRepo.GetByID(ctx, sub.PlanID)
	if err != nil {
		return nil, apperrors.Internal("failed to load plan", err)
	}

	return &SubscriptionView{Subscription: sub, Plan: plan}, nil
}

// ListPlans returns the active plan catalog for the plan-selection step.
func (s *AccountService) ListPlans(ctx context.Context) ([]*domain.Plan, error) {
	plans, err := s.planRepo.ListActive(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list plans", err)
	}
	return plans, nil
}
