package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/lumapress/panel-service/internal/apperrors"
	"github.com/lumapress/panel-service/internal/domain"
	"github.com/lumapress/panel-service/internal/repository"
)

type provisionRepository struct {
	db *sqlx.DB
}

// NewProvisionRepository creates the unit of work behind finalize.
func NewProvisionRepository(db *sqlx.DB) repository.ProvisionRepository {
	return &provisionRepository{db: db}
}

// CreateTenant materializes the permanent tenant graph and deletes the staged
// registration in one transaction. Any failure rolls the whole block back, so
// a concurrent duplicate finalize losing the slug or email uniqueness race
// leaves no partial tenant; the loser gets a CONFLICT.
func (r *provisionRepository) CreateTenant(ctx context.Context, graph *domain.TenantGraph) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.Internal("failed to begin finalize transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name, phone,
			status, registration_step, email_verified_at, phone_verified_at,
			is_super_admin, last_account_id, failed_logins, locked_until,
			created_at, updated_at, last_login_at
		) VALUES (
			:id, :email, :password_hash, :first_name, :last_name, :phone,
			:status, :registration_step, :email_verified_at, :phone_verified_at,
			:is_super_admin, :last_account_id, :failed_logins, :locked_until,
			:created_at, :updated_at, :last_login_at
		)`, graph.User,
	); err != nil {
		return classify(err, "email already registered", "failed to create user")
	}

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO accounts (
			id, name, slug, billing_email, general_email, active, created_at, updated_at
		) VALUES (
			:id, :name, :slug, :billing_email, :general_email, :active, :created_at, :updated_at
		)`, graph.Account,
	); err != nil {
		return classify(err, "account slug already taken", "failed to create account")
	}

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO roles (
			id, account_id, name, description, permissions, is_system_role, created_at, updated_at
		) VALUES (
			:id, :account_id, :name, :description, :permissions, :is_system_role, :created_at, :updated_at
		)`, graph.OwnerRole,
	); err != nil {
		return classify(err, "owner role already exists", "failed to create owner role")
	}

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO account_members (
			id, account_id, user_id, role_id, is_owner, status, created_at, updated_at
		) VALUES (
			:id, :account_id, :user_id, :role_id, :is_owner, :status, :created_at, :updated_at
		)`, graph.Membership,
	); err != nil {
		return classify(err, "membership already exists", "failed to create membership")
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET last_account_id = $1 WHERE id = $2`,
		graph.Account.ID, graph.User.ID,
	); err != nil {
		return apperrors.Internal("failed to set last selected account", err)
	}

	if graph.Subscription != nil {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO subscriptions (
				id, account_id, plan_id, status, period_start, period_end,
				cancelled_at, created_at, updated_at
			) VALUES (
				:id, :account_id, :plan_id, :status, :period_start, :period_end,
				:cancelled_at, :created_at, :updated_at
			)`, graph.Subscription,
		); err != nil {
			return classify(err, "subscription already exists", "failed to create subscription")
		}
	}

	// Cascades to the registration's OTP challenge.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM pending_registrations WHERE id = $1`,
		graph.RegistrationID,
	); err != nil {
		return apperrors.Internal("failed to delete staged registration", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Internal("failed to commit finalize transaction", err)
	}

	return nil
}

func classify(err error, conflictMsg, internalMsg string) error {
	if isUniqueViolation(err) {
		return apperrors.Wrap(apperrors.CodeConflict, conflictMsg, err)
	}
	return apperrors.Internal(internalMsg, err)
}
