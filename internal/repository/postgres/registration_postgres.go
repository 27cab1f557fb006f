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

type registrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository creates a new PostgreSQL staged-registration repository.
func NewRegistrationRepository(db *sqlx.DB) repository.RegistrationRepository {
	return &registrationRepository{db: db}
}

// Upsert inserts the registration or overwrites the one already holding the
// email. The uniqueness constraint on email resolves the concurrent-signup
// race at the storage layer: the loser's insert becomes an update.
func (r *registrationRepository) Upsert(ctx context.Context, reg *domain.PendingRegistration) error {
	query := `
		INSERT INTO pending_registrations (
			id, email, first_name, last_name, phone, password_hash,
			consent_given, consent_at, current_step, otp_channel,
			email_verified_at, phone_verified_at, account_name, account_slug,
			interview_answers, plan_id, expires_at, created_at, updated_at
		) VALUES (
			:id, :email, :first_name, :last_name, :phone, :password_hash,
			:consent_given, :consent_at, :current_step, :otp_channel,
			:email_verified_at, :phone_verified_at, :account_name, :account_slug,
			:interview_answers, :plan_id, :expires_at, :created_at, :updated_at
		)
		ON CONFLICT (email) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			phone = EXCLUDED.phone,
			password_hash = EXCLUDED.password_hash,
			consent_given = EXCLUDED.consent_given,
			consent_at = EXCLUDED.consent_at,
			current_step = EXCLUDED.current_step,
			otp_channel = EXCLUDED.otp_channel,
			email_verified_at = EXCLUDED.email_verified_at,
			phone_verified_at = EXCLUDED.phone_verified_at,
			account_name = EXCLUDED.account_name,
			account_slug = EXCLUDED.account_slug,
			interview_answers = EXCLUDED.interview_answers,
			plan_id = EXCLUDED.plan_id,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
		RETURNING id`

	rows, err := r.db.NamedQueryContext(ctx, query, reg)
	if err != nil {
		return fmt.Errorf("failed to upsert registration: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&reg.ID); err != nil {
			return fmt.Errorf("failed to scan upserted registration id: %w", err)
		}
	}

	return rows.Err()
}

// GetByID retrieves a staged registration by its ID
func (r *registrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PendingRegistration, error) {
	query := `
		SELECT id, email, first_name, last_name, phone, password_hash,
			   consent_given, consent_at, current_step, otp_channel,
			   email_verified_at, phone_verified_at, account_name, account_slug,
			   interview_answers, plan_id, expires_at, created_at, updated_at
		FROM pending_registrations
		WHERE id = $1`

	var reg domain.PendingRegistration
	err := r.db.GetContext(ctx, &reg, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("registration not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get registration by id: %w", err)
	}

	return &reg, nil
}

// GetByEmail retrieves a staged registration by its normalized email
func (r *registrationRepository) GetByEmail(ctx context.Context, email string) (*domain.PendingRegistration, error) {
	query := `
		SELECT id, email, first_name, last_name, phone, password_hash,
			   consent_given, consent_at, current_step, otp_channel,
			   email_verified_at, phone_verified_at, account_name, account_slug,
			   interview_answers, plan_id, expires_at, created_at, updated_at
		FROM pending_registrations
		WHERE email = $1`

	var reg domain.PendingRegistration
	err := r.db.GetContext(ctx, &reg, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("registration not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get registration by email: %w", err)
	}

	return &reg, nil
}

// GetBySlug retrieves another live registration holding the slug, if any.
// Expired rows are skipped; they no longer reserve the slug.
func (r *registrationRepository) GetBySlug(ctx context.Context, slug string, excludeID uuid.UUID) (*domain.PendingRegistration, error) {
	query := `
		SELECT id, email, first_name, last_name, phone, password_hash,
			   consent_given, consent_at, current_step, otp_channel,
			   email_verified_at, phone_verified_at, account_name, account_slug,
			   interview_answers, plan_id, expires_at, created_at, updated_at
		FROM pending_registrations
		WHERE account_slug = $1 AND id <> $2 AND expires_at > NOW()
		LIMIT 1`

	var reg domain.PendingRegistration
	err := r.db.GetContext(ctx, &reg, query, slug, excludeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get registration by slug: %w", err)
	}

	return &reg, nil
}

// Update updates an existing staged registration
func (r *registrationRepository) Update(ctx context.Context, reg *domain.PendingRegistration) error {
	query := `
		UPDATE pending_registrations
		SET first_name = :first_name,
			last_name = :last_name,
			phone = :phone,
			password_hash = :password_hash,
			consent_given = :consent_given,
			consent_at = :consent_at,
			current_step = :current_step,
			otp_channel = :otp_channel,
			email_verified_at = :email_verified_at,
			phone_verified_at = :phone_verified_at,
			account_name = :account_name,
			account_slug = :account_slug,
			interview_answers = :interview_answers,
			plan_id = :plan_id,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, reg)
	if err != nil {
		return fmt.Errorf("failed to update registration: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("registration not found")
	}

	return nil
}

// Delete removes a staged registration and, via ON DELETE CASCADE, its OTP challenge
func (r *registrationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM pending_registrations WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}

	return nil
}
