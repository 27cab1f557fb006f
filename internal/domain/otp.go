package domain

import (
	"time"

	"github.com/google/uuid"
)

// OTPChannel is the delivery channel for a verification code.
type OTPChannel string

const (
	ChannelEmail OTPChannel = "EMAIL"
	ChannelSMS   OTPChannel = "SMS"
)

// Valid reports whether c names a supported delivery channel.
func (c OTPChannel) Valid() bool {
	return c == ChannelEmail || c == ChannelSMS
}

// MaxOTPAttempts caps verify attempts per challenge, independent of code
// correctness.
const MaxOTPAttempts = 5

// OTPChallenge is a short-lived numeric code bound to one staged registration.
// At most one live challenge exists per registration; issuing a new one
// replaces any prior challenge. A challenge is terminal once verified, expired
// or exhausted.
type OTPChallenge struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	RegistrationID uuid.UUID  `json:"registration_id" db:"registration_id"`
	Code           string     `json:"-" db:"code"`
	Channel        OTPChannel `json:"channel" db:"channel"`
	Verified       bool       `json:"verified" db:"verified"`
	Attempts       int        `json:"attempts" db:"attempts"`
	ExpiresAt      time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// Expired reports whether the challenge's TTL has elapsed.
func (c *OTPChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Exhausted reports whether the attempt cap has been reached.
func (c *OTPChallenge) Exhausted() bool {
	return c.Attempts >= MaxOTPAttempts
}
