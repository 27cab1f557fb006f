package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
	UserStatusLocked   UserStatus = "locked"
)

// User is a permanent identity, shared across accounts via AccountMember.
// Created only by finalize (or administrative creation).
type User struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	Email            string           `json:"email" db:"email"`
	PasswordHash     string           `json:"-" db:"password_hash"`
	FirstName        string           `json:"first_name" db:"first_name"`
	LastName         string           `json:"last_name" db:"last_name"`
	Phone            *string          `json:"phone,omitempty" db:"phone"`
	Status           UserStatus       `json:"status" db:"status"`
	RegistrationStep RegistrationStep `json:"registration_step" db:"registration_step"`
	EmailVerifiedAt  *time.Time       `json:"email_verified_at,omitempty" db:"email_verified_at"`
	PhoneVerifiedAt  *time.Time       `json:"phone_verified_at,omitempty" db:"phone_verified_at"`
	// IsSuperAdmin bypasses tenant authorization entirely.
	IsSuperAdmin  bool       `json:"is_super_admin" db:"is_super_admin"`
	LastAccountID *uuid.UUID `json:"last_account_id,omitempty" db:"last_account_id"`
	FailedLogins  int        `json:"-" db:"failed_logins"`
	LockedUntil   *time.Time `json:"-" db:"locked_until"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
}
