package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/lumapress/panel-service/internal/apperrors"
	"github.com/lumapress/panel-service/internal/authz"
	"github.com/lumapress/panel-service/internal/domain"
	"github.com/lumapress/panel-service/internal/repository"
)

// RoleService manages account-scoped roles and their permission sets. Every
// permission key is validated against the static catalog before it is stored.
type RoleService struct {
	roleRepo    repository.RoleRepository
	accountRepo repository.AccountRepository
}

func NewRoleService(roleRepo repository.RoleRepository, accountRepo repository.AccountRepository) *RoleService {
	return &RoleService{roleRepo: roleRepo, accountRepo: accountRepo}
}

type CreateRoleRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=100"`
	Description string   `json:"description" validate:"max=500"`
	Permissions []string `json:"permissions" validate:"required,min=1"`
}

func validatePermissions(keys []string) error {
	for _, key := range keys {
		if !authz.ValidKey(key) {
			return apperrors.Validation("unknown permission key: " + key)
		}
	}
	return nil
}

// Create adds a custom role to the account.
func (s *RoleService) Create(ctx context.Context, accountID uuid.UUID, req CreateRoleRequest) (*domain.Role, error) {
	if err := validatePermissions(req.Permissions); err != nil {
		return nil, err
	}

	now := time.Now()
	role := &domain.Role{
		ID:          uuid.New(),
		AccountID:   accountID,
		Name:        req.Name,
		Description: req.Description,
		Permissions: pq.StringArray(req.Permissions),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, apperrors.Internal("failed to create role", err)
	}

	return role, nil
}

// List returns all roles of the account.
func (s *RoleService) List(ctx context.Context, accountID uuid.UUID) ([]*domain.Role, error) {
	roles, err := s.roleRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, apperrors.Internal("failed to list roles", err)
	}
	return roles, nil
}

// Get returns a role, scoped to the account.
func (s *RoleService) Get(ctx context.Context, accountID, roleID uuid.UUID) (*domain.Role, error) {
	role, err := s.roleRepo.GetByID(ctx, roleID)
	if err != nil || role.AccountID != accountID {
		return nil, apperrors.NotFound("role not found")
	}
	return role, nil
}

type UpdateRoleRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=100"`
	Description string   `json:"description" validate:"max=500"`
	Permissions []string `json:"permissions" validate:"required,min=1"`
}

// Update replaces a role's name, description and permission set. System roles
// keep their permissions; only the description may change.
func (s *RoleService) Update(ctx context.Context, accountID, roleID uuid.UUID, req UpdateRoleRequest) (*domain.Role, error) {
	role, err := s.Get(ctx, accountID, roleID)
	if err != nil {
		return nil, err
	}

	if err := validatePermissions(req.Permissions); err != nil {
		return nil, err
	}

	if role.IsSystemRole {
		if req.Name != role.Name || !samePermissionSet(req.Permissions, role.Permissions) {
			return nil, apperrors.Forbidden("system roles cannot be renamed or re-scoped")
		}
	} else {
		role.Name = req.Name
		role.Permissions = pq.StringArray(req.Permissions)
	}
	role.Description = req.Description
	role.UpdatedAt = time.Now()

	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, apperrors.Internal("failed to update role", err)
	}

	return role, nil
}

// samePermissionSet compares permission lists as sets, order-insensitive.
func samePermissionSet(requested []string, current pq.StringArray) bool {
	want := make(map[string]struct{}, len(requested))
	for _, key := range requested {
		want[key] = struct{}{}
	}
	if len(want) != len(current) {
		return false
	}
	for _, key := range current {
		if _, ok := want[key]; !ok {
			return false
		}
	}
	return true
}

// Delete removes a custom role. The repository refuses system roles, and a
// role still assigned to members is held back by its foreign key.
func (s *RoleService) Delete(ctx context.Context, accountID, roleID uuid.UUID) error {
	role, err := s.Get(ctx, accountID, roleID)
	if err != nil {
		return err
	}
	if role.IsSystemRole {
		return apperrors.Forbidden("system roles cannot be deleted")
	}

	if err := s.roleRepo.Delete(ctx, roleID); err != nil {
		return apperrors.Internal("failed to delete role", err)
	}

	return nil
}

// AssignToMember changes the role of an account member. The owner membership
// keeps its owner flag regardless of role.
func (s *RoleService) AssignToMember(ctx context.Context, accountID, userID, roleID uuid.UUID) error {
	if _, err := s.Get(ctx, accountID, roleID); err != nil {
		return err
	}

	member, err := s.accountRepo.GetMember(ctx, accountID, userID)
	if err != nil {
		return apperrors.NotFound("member not found")
	}

	member.RoleID = roleID
	member.UpdatedAt = time.Now()
	if err := s.accountRepo.UpdateMember(ctx, member); err != nil {
		return apperrors.Internal("failed to assign role", err)
	}

	return nil
}
