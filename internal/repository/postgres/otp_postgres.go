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

type otpRepository struct {
	db *sqlx.DB
}

// NewOTPRepository creates a new PostgreSQL OTP challenge repository.
func NewOTPRepository(db *sqlx.DB) repository.OTPRepository {
	return &otpRepository{db: db}
}

// Replace deletes any prior challenge for the registration and inserts the
// new one in a single transaction, so at most one challenge is ever live.
func (r *otpRepository) Replace(ctx context.Context, challenge *domain.OTPChallenge) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM otp_challenges WHERE registration_id = $1`,
		challenge.RegistrationID,
	); err != nil {
		return fmt.Errorf("failed to delete prior challenge: %w", err)
	}

	query := `
		INSERT INTO otp_challenges (
			id, registration_id, code, channel, verified, attempts, expires_at, created_at
		) VALUES (
			:id, :registration_id, :code, :channel, :verified, :attempts, :expires_at, :created_at
		)`

	if _, err := tx.NamedExecContext(ctx, query, challenge); err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit challenge replacement: %w", err)
	}

	return nil
}

// GetByRegistration retrieves the newest challenge for a registration
func (r *otpRepository) GetByRegistration(ctx context.Context, registrationID uuid.UUID) (*domain.OTPChallenge, error) {
	query := `
		SELECT id, registration_id, code, channel, verified, attempts, expires_at, created_at
		FROM otp_challenges
		WHERE registration_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var challenge domain.OTPChallenge
	err := r.db.GetContext(ctx, &challenge, query, registrationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("challenge not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	return &challenge, nil
}

// MarkVerified flips the challenge to verified with an atomic conditional
// update, so two concurrent verify calls with the correct code cannot both
// succeed.
func (r *otpRepository) MarkVerified(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE otp_challenges
		SET verified = true
		WHERE id = $1 AND verified = false AND attempts < $2`

	result, err := r.db.ExecContext(ctx, query, id, domain.MaxOTPAttempts)
	if err != nil {
		return false, fmt.Errorf("failed to mark challenge verified: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// IncrementAttempts bumps the counter while the challenge is live, returning
// the new count (0 when the conditional update matched nothing).
func (r *otpRepository) IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		UPDATE otp_challenges
		SET attempts = attempts + 1
		WHERE id = $1 AND verified = false AND attempts < $2
		RETURNING attempts`

	var attempts int
	err := r.db.GetContext(ctx, &attempts, query, id, domain.MaxOTPAttempts)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to increment attempts: %w", err)
	}

	return attempts, nil
}

// DeleteByRegistration removes the challenge belonging to a registration
func (r *otpRepository) DeleteByRegistration(ctx context.Context, registrationID uuid.UUID) error {
	query := `DELETE FROM otp_challenges WHERE registration_id = $1`

	if _, err := r.db.ExecContext(ctx, query, registrationID); err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}

	return nil
}
