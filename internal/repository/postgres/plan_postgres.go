package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lumapress/panel-service/internal/domain"
	"github.com/lumapress/panel-service/internal/repository"
)

type planRepository struct {
	db *sqlx.DB
}

// NewPlanRepository creates a new PostgreSQL plan catalog repository.
func NewPlanRepository(db *sqlx.DB) repository.PlanRepository {
	return &planRepository{db: db}
}

// GetByID retrieves a plan by its internal ID
func (r *planRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	query := `
		SELECT id, code, name, price_cents, active, created_at
		FROM plans
		WHERE id = $1`

	var plan domain.Plan
	err := r.db.GetContext(ctx, &plan, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("plan not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get plan by id: %w", err)
	}

	return &plan, nil
}

// GetByCode resolves a human-facing plan code (e.g. "pro") to the catalog entry
func (r *planRepository) GetByCode(ctx context.Context, code string) (*domain.Plan, error) {
	query := `
		SELECT id, code, name, price_cents, active, created_at
		FROM plans
		WHERE code = $1 AND active = true`

	var plan domain.Plan
	err := r.db.GetContext(ctx, &plan, query, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("plan not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get plan by code: %w", err)
	}

	return &plan, nil
}

// ListActive retrieves all selectable plans
func (r *planRepository) ListActive(ctx context.Context) ([]*domain.Plan, error) {
	query := `
		SELECT id, code, name, price_cents, active, created_at
		FROM plans
		WHERE active = true
		ORDER BY price_cents ASC`

	var plans []*domain.Plan
	if err := r.db.SelectContext(ctx, &plans, query); err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	return plans, nil
}
