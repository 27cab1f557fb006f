package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Role is scoped to one Account and holds an array of permission keys of the
// form MODULE_CAPABILITY. System roles (e.g. the Owner role created at
// finalize) cannot be deleted.
type Role struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	AccountID    uuid.UUID      `json:"account_id" db:"account_id"`
	Name         string         `json:"name" db:"name"`
	Description  string         `json:"description" db:"description"`
	Permissions  pq.StringArray `json:"permissions" db:"permissions"`
	IsSystemRole bool           `json:"is_system_role" db:"is_system_role"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}
