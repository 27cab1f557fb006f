package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/lumapress/panel-service/internal/domain"
)

type RoleRepository interface {
	Create(ctx context.Context, role *domain.Role) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Role, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Role, error)
	Update(ctx context.Context, role *domain.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
}
