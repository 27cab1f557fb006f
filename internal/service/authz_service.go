package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/lumapress/panel-service/internal/apperrors"
	"github.com/lumapress/panel-service/internal/authz"
	"github.com/lumapress/panel-service/internal/domain"
	"github.com/lumapress/panel-service/internal/repository"
)

// AuthzService resolves a (user, account) pair to an authorization actor and
// evaluates permission checks against the engine. Membership and role are read
// fresh on every check so permission edits apply immediately.
type AuthzService struct {
	userRepo    repository.UserRepository
	accountRepo repository.AccountRepository
	roleRepo    repository.RoleRepository
}

func NewAuthzService(
	userRepo repository.UserRepository,
	accountRepo repository.AccountRepository,
	roleRepo repository.RoleRepository,
) *AuthzService {
	return &AuthzService{
		userRepo:    userRepo,
		accountRepo: accountRepo,
		roleRepo:    roleRepo,
	}
}

// ActorFor projects the caller into the account. A super-admin gets an actor
// even without a membership; anyone else must be an ACTIVE member.
func (s *AuthzService) ActorFor(ctx context.Context, userID, accountID uuid.UUID) (authz.Actor, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return authz.Actor{}, apperrors.NotFound("user not found")
	}

	if user.IsSuperAdmin {
		return authz.Actor{IsSuperAdmin: true}, nil
	}

	member, err := s.accountRepo.GetMember(ctx, accountID, userID)
	if err != nil {
		return authz.Actor{}, apperrors.Forbidden("not a member of this account")
	}
	if member.Status != domain.MemberStatusActive {
		return authz.Actor{}, apperrors.Forbidden("membership is not active")
	}

	role, err := s.roleRepo.GetByID(ctx, member.RoleID)
	if err != nil {
		return authz.Actor{}, apperrors.Internal("failed to load role", err)
	}

	return authz.Actor{
		IsOwner:     member.IsOwner,
		Permissions: role.Permissions,
	}, nil
}

// Authorize returns nil when the user may exercise the capability on the
// module within the account, FORBIDDEN otherwise.
func (s *AuthzService) Authorize(ctx context.Context, userID, accountID uuid.UUID, m authz.Module, c authz.Capability) error {
	actor, err := s.ActorFor(ctx, userID, accountID)
	if err != nil {
		return err
	}

	if !authz.Allowed(actor, m, c) {
		return apperrors.Forbidden("missing permission " + authz.Key(m, c))
	}

	return nil
}

// VisibilityResponse drives what the client renders: navigation entries and
// settings tabs the caller may see.
type VisibilityResponse struct {
	Modules         []authz.Module `json:"modules"`
	NavigationPaths []string       `json:"navigation_paths"`
	SettingsTabs    []string       `json:"settings_tabs"`
}

// Visibility computes the caller's module, navigation and settings projections
// for the account.
func (s *AuthzService) Visibility(ctx context.Context, userID, accountID uuid.UUID) (*VisibilityResponse, error) {
	actor, err := s.ActorFor(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	return &VisibilityResponse{
		Modules:         authz.VisibleModules(actor),
		NavigationPaths: authz.VisiblePaths(actor),
		SettingsTabs:    authz.VisibleTabs(actor),
	}, nil
}
