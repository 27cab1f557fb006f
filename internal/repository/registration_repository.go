package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/lumapress/panel-service/internal/domain"
)

type RegistrationRepository interface {
	// Upsert inserts the registration or, when the normalized email already
	// has one, overwrites it in place. The stored ID is written back to reg.
	Upsert(ctx context.Context, reg *domain.PendingRegistration) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PendingRegistration, error)
	GetByEmail(ctx context.Context, email string) (*domain.PendingRegistration, error)
	// GetBySlug returns a live registration other than excludeID holding the
	// slug, or nil when the slug is free among staged registrations.
	GetBySlug(ctx context.Context, slug string, excludeID uuid.UUID) (*domain.PendingRegistration, error)
	Update(ctx context.Context, reg *domain.PendingRegistration) error
	Delete(ctx context.Context, id uuid.UUID) error
}
