package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in Claims.TokenType. A "registration" token references a
// staged registration; "access" and "refresh" tokens reference a permanent
// user. Handlers never trust any other source for identity.
const (
	TokenTypeAccess       = "access"
	TokenTypeRefresh      = "refresh"
	TokenTypeRegistration = "registration"
)

// Claims is the payload of every session-reference token.
type Claims struct {
	jwt.RegisteredClaims
	UserID         uuid.UUID  `json:"user_id,omitempty"`
	RegistrationID *uuid.UUID `json:"registration_id,omitempty"`
	Email          string     `json:"email,omitempty"`
	TokenType      string     `json:"token_type"`
}

// TokenPair is the access/refresh pair returned on login and refresh.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"`
}
