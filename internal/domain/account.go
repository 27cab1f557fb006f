package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is a tenant workspace. Created only by finalize.
type Account struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Slug         string    `json:"slug" db:"slug"`
	BillingEmail string    `json:"billing_email" db:"billing_email"`
	GeneralEmail string    `json:"general_email" db:"general_email"`
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type MemberStatus string

const (
	MemberStatusActive  MemberStatus = "ACTIVE"
	MemberStatusPending MemberStatus = "PENDING"
	MemberStatusRemoved MemberStatus = "REMOVED"
)

// AccountMember joins a User to an Account with a Role. Exactly one membership
// exists per (account, user) pair; the owner membership is created atomically
// with its Account and Role.
type AccountMember struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	AccountID uuid.UUID    `json:"account_id" db:"account_id"`
	UserID    uuid.UUID    `json:"user_id" db:"user_id"`
	RoleID    uuid.UUID    `json:"role_id" db:"role_id"`
	IsOwner   bool         `json:"is_owner" db:"is_owner"`
	Status    MemberStatus `json:"status" db:"status"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription links an Account to a Plan, one-to-one with the account.
type Subscription struct {
	ID          uuid.UUID          `json:"id" db:"id"`
	AccountID   uuid.UUID          `json:"account_id" db:"account_id"`
	PlanID      uuid.UUID          `json:"plan_id" db:"plan_id"`
	Status      SubscriptionStatus `json:"status" db:"status"`
	PeriodStart time.Time          `json:"period_start" db:"period_start"`
	PeriodEnd   time.Time          `json:"period_end" db:"period_end"`
	CancelledAt *time.Time         `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" db:"updated_at"`
}

// Plan is a catalog entry resolved from its human-facing code (e.g. "pro").
type Plan struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Code       string    `json:"code" db:"code"`
	Name       string    `json:"name" db:"name"`
	PriceCents int       `json:"price_cents" db:"price_cents"`
	Active     bool      `json:"active" db:"active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
