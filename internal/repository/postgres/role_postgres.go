package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lumapress/panel-service/internal/domain"
	"github.com/lumapress/panel-service/internal/repository"
)

type roleRepository struct {
	db *sqlx.DB
}

// NewRoleRepository creates a new PostgreSQL role repository.
func NewRoleRepository(db *sqlx.DB) repository.RoleRepository {
	return &roleRepository{db: db}
}

// Create inserts a new role into the database
func (r *roleRepository) Create(ctx context.Context, role *domain.Role) error {
	query := `
		INSERT INTO roles (
			id, account_id, name, description, permissions, is_system_role, created_at, updated_at
		) VALUES (
			:id, :account_id, :name, :description, :permissions, :is_system_role, :created_at, :updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, role); err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}

	return nil
}

// GetByID retrieves a role by its ID
func (r *roleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Role, error) {
	query := `
		SELECT id, account_id, name, description, permissions, is_system_role, created_at, updated_at
		FROM roles
		WHERE id = $1`

	var role domain.Role
	err := r.db.GetContext(ctx, &role, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("role not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get role by id: %w", err)
	}

	return &role, nil
}

// ListByAccount retrieves all roles scoped to an account
func (r *roleRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Role, error) {
	query := `
		SELECT id, account_id, name, description, permissions, is_system_role, created_at, updated_at
		FROM roles
		WHERE account_id = $1
		ORDER BY created_at ASC`

	var roles []*domain.Role
	if err := r.db.SelectContext(ctx, &roles, query, accountID); err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	return roles, nil
}

// Update updates an existing role
func (r *roleRepository) Update(ctx context.Context, role *domain.Role) error {
	role.UpdatedAt = time.Now()

	query := `
		UPDATE roles
		SET name = :name,
			description = :description,
			permissions = :permissions,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, role)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("role not found")
	}

	return nil
}

// Delete removes a role. System roles are protected at the service layer.
func (r *roleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM roles WHERE id = $1 AND is_system_role = false`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("role not found")
	}

	return nil
}
