package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/lumapress/panel-service/internal/domain"
)

// PlanRepository is the read-only plan catalog lookup. Catalog management is
// owned by billing and out of scope here.
type PlanRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error)
	GetByCode(ctx context.Context, code string) (*domain.Plan, error)
	ListActive(ctx context.Context) ([]*domain.Plan, error)
}
