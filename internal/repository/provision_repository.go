package repository

import (
	"context"

	"github.com/lumapress/panel-service/internal/domain"
)

// ProvisionRepository is the unit of work behind finalize. CreateTenant writes
// the whole tenant graph and deletes the staged registration in one
// transaction; a unique-constraint violation (email or slug lost to a
// concurrent finalize) surfaces as a CONFLICT error and leaves no partial
// tenant.
type ProvisionRepository interface {
	CreateTenant(ctx context.Context, graph *domain.TenantGraph) error
}
