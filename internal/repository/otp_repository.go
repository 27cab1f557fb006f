package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/lumapress/panel-service/internal/domain"
)

type OTPRepository interface {
	// Replace atomically deletes any prior challenge for the registration and
	// stores the new one.
	Replace(ctx context.Context, challenge *domain.OTPChallenge) error
	GetByRegistration(ctx context.Context, registrationID uuid.UUID) (*domain.OTPChallenge, error)
	// MarkVerified flips the challenge to verified only if it is not already
	// verified and the attempt cap has not been reached. Returns false when
	// the conditional update matched no row.
	MarkVerified(ctx context.Context, id uuid.UUID) (bool, error)
	// IncrementAttempts bumps the attempt counter only while the challenge is
	// unverified and under the cap, returning the new count. Returns 0 when
	// the conditional update matched no row.
	IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error)
	DeleteByRegistration(ctx context.Context, registrationID uuid.UUID) error
}
