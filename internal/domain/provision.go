package domain

import "github.com/google/uuid"

// TenantGraph is the full set of permanent records materialized by a single
// finalize transaction. Either every record is created and the staged
// registration deleted, or nothing is written.
type TenantGraph struct {
	RegistrationID uuid.UUID
	User           *User
	Account        *Account
	OwnerRole      *Role
	Membership     *AccountMember
	Subscription   *Subscription // nil when no plan was selected
}
