package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/lumapress/panel-service/internal/domain"
)

type AccountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Account, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	GetMember(ctx context.Context, accountID, userID uuid.UUID) (*domain.AccountMember, error)
	ListMembers(ctx context.Context, accountID uuid.UUID) ([]*domain.AccountMember, error)
	UpdateMember(ctx context.Context, member *domain.AccountMember) error
	GetSubscription(ctx context.Context, accountID uuid.UUID) (*domain.Subscription, error)
}
