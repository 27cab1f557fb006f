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

type accountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new PostgreSQL account repository.
func NewAccountRepository(db *sqlx.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

// GetByID retrieves an account by its ID
func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `
		SELECT id, name, slug, billing_email, general_email, active, created_at, updated_at
		FROM accounts
		WHERE id = $1`

	var account domain.Account
	err := r.db.GetContext(ctx, &account, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("account not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}

	return &account, nil
}

// GetBySlug retrieves an account by its slug
func (r *accountRepository) GetBySlug(ctx context.Context, slug string) (*domain.Account, error) {
	query := `
		SELECT id, name, slug, billing_email, general_email, active, created_at, updated_at
		FROM accounts
		WHERE slug = $1`

	var account domain.Account
	err := r.db.GetContext(ctx, &account, query, slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("account not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get account by slug: %w", err)
	}

	return &account, nil
}

// SlugExists reports whether any account already holds the slug
func (r *accountRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE slug = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, slug); err != nil {
		return false, fmt.Errorf("failed to check slug existence: %w", err)
	}

	return exists, nil
}

// GetMember retrieves the membership for an (account, user) pair
func (r *accountRepository) GetMember(ctx context.Context, accountID, userID uuid.UUID) (*domain.AccountMember, error) {
	query := `
		SELECT id, account_id, user_id, role_id, is_owner, status, created_at, updated_at
		FROM account_members
		WHERE account_id = $1 AND user_id = $2`

	var member domain.AccountMember
	err := r.db.GetContext(ctx, &member, query, accountID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("membership not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return &member, nil
}

// ListMembers retrieves all memberships of an account
func (r *accountRepository) ListMembers(ctx context.Context, accountID uuid.UUID) ([]*domain.AccountMember, error) {
	query := `
		SELECT id, account_id, user_id, role_id, is_owner, status, created_at, updated_at
		FROM account_members
		WHERE account_id = $1
		ORDER BY created_at ASC`

	var members []*domain.AccountMember
	if err := r.db.SelectContext(ctx, &members, query, accountID); err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	return members, nil
}

// UpdateMember updates an existing membership
func (r *accountRepository) UpdateMember(ctx context.Context, member *domain.AccountMember) error {
	member.UpdatedAt = time.Now()

	query := `
		UPDATE account_members
		SET role_id = :role_id,
			is_owner = :is_owner,
			status = :status,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, member)
	if err != nil {
		return fmt.Errorf("failed to update membership: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("membership not found")
	}

	return nil
}

// GetSubscription retrieves the subscription of an account
func (r *accountRepository) GetSubscription(ctx context.Context, accountID uuid.UUID) (*domain.Subscription, error) {
	query := `
		SELECT id, account_id, plan_id, status, period_start, period_end,
			   cancelled_at, created_at, updated_at
		FROM subscriptions
		WHERE account_id = $1`

	var sub domain.Subscription
	err := r.db.GetContext(ctx, &sub, query, accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("subscription not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}
