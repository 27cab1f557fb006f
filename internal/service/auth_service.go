package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/lumapress/panel-service/internal/apperrors"
	"github.com/lumapress/panel-service/internal/config"
	"github.com/lumapress/panel-service/internal/domain"
	"github.com/lumapress/panel-service/internal/repository"
	"github.com/lumapress/panel-service/pkg/blacklist"
	"github.com/lumapress/panel-service/pkg/hash"
	"github.com/lumapress/panel-service/pkg/token"
)

// AuthService handles authentication for permanent users: login with a
// failed-attempt lockout, refresh-token rotation, logout and password change.
type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	tokenSvc    *token.Service
	blacklist   *blacklist.TokenBlacklist
	cfg         *config.Config
}

func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	tokenSvc *token.Service,
	bl *blacklist.TokenBlacklist,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tokenSvc:    tokenSvc,
		blacklist:   bl,
		cfg:         cfg,
	}
}

// hashToken derives the storage form of a refresh token. Only the hash ever
// touches the database.
func hashToken(t string) string {
	sum := sha256.Sum256([]byte(t))
	return hex.EncodeToString(sum[:])
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User   *domain.User      `json:"user"`
	Tokens *domain.TokenPair `json:"tokens"`
}

// Login verifies credentials and issues a token pair. The failure message is
// identical for an unknown email and a wrong password.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		return nil, apperrors.Validation("invalid email or password")
	}

	now := time.Now()
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return nil, apperrors.RateLimited("account is temporarily locked, try again later")
	}
	if user.Status != domain.UserStatusActive {
		return nil, apperrors.Forbidden("account is not active")
	}

	ok, err := hash.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return nil, apperrors.Internal("failed to verify password", err)
	}
	if !ok {
		if err := s.userRepo.IncrementFailedLogins(ctx, user.ID); err != nil {
			log.Printf("[AUTH] Failed to record failed login for %s: %v", user.ID, err)
		}
		if user.FailedLogins+1 >= s.cfg.Auth.MaxFailedLogins {
			lockedUntil := now.Add(s.cfg.Auth.LockDuration)
			user.LockedUntil = &lockedUntil
			if err := s.userRepo.Update(ctx, user); err != nil {
				log.Printf("[AUTH] Failed to lock user %s: %v", user.ID, err)
			}
		}
		return nil, apperrors.Validation("invalid email or password")
	}

	if err := s.userRepo.ResetFailedLogins(ctx, user.ID); err != nil {
		log.Printf("[AUTH] Failed to reset failed logins for %s: %v", user.ID, err)
	}

	tokens, err := s.tokenSvc.GenerateTokenPair(user)
	if err != nil {
		return nil, apperrors.Internal("failed to generate tokens", err)
	}

	session := &domain.Session{
		ID:               uuid.New(),
		UserID:           user.ID,
		RefreshTokenHash: hashToken(tokens.RefreshToken),
		ExpiresAt:        now.Add(s.cfg.Token.RefreshTokenExpiry),
		CreatedAt:        now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, apperrors.Internal("failed to create session", err)
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		log.Printf("[AUTH] Failed to update last login for %s: %v", user.ID, err)
	}

	return &LoginResponse{User: user, Tokens: tokens}, nil
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh rotates a refresh token: the presented token's session is replaced
// with one bound to the new token, so a token can only be refreshed once.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*domain.TokenPair, error) {
	claims, err := s.tokenSvc.Validate(req.RefreshToken)
	if err != nil || claims.TokenType != domain.TokenTypeRefresh {
		return nil, apperrors.Forbidden("invalid refresh token")
	}

	revoked, err := s.blacklist.IsTokenBlacklisted(ctx, req.RefreshToken)
	if err != nil {
		return nil, apperrors.Internal("failed to check token state", err)
	}
	if revoked {
		return nil, apperrors.Forbidden("refresh token has been revoked")
	}

	session, err := s.sessionRepo.GetByTokenHash(ctx, hashToken(req.RefreshToken))
	if err != nil {
		return nil, apperrors.Forbidden("refresh token is not recognized")
	}
	if session.ExpiresAt.Before(time.Now()) {
		_ = s.sessionRepo.Delete(ctx, session.ID)
		return nil, apperrors.Expired("session expired, please log in again")
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, apperrors.Forbidden("user no longer exists")
	}
	if user.Status != domain.UserStatusActive {
		return nil, apperrors.Forbidden("account is not active")
	}

	tokens, err := s.tokenSvc.GenerateTokenPair(user)
	if err != nil {
		return nil, apperrors.Internal("failed to generate tokens", err)
	}

	session.RefreshTokenHash = hashToken(tokens.RefreshToken)
	session.ExpiresAt = time.Now().Add(s.cfg.Token.RefreshTokenExpiry)
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, apperrors.Internal("failed to rotate session", err)
	}

	return tokens, nil
}

type LogoutRequest struct {
	AccessToken  string
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Logout revokes the access token and deletes the refresh session.
func (s *AuthService) Logout(ctx context.Context, req LogoutRequest) error {
	if claims, err := s.tokenSvc.Validate(req.AccessToken); err == nil && claims.ExpiresAt != nil {
		if err := s.blacklist.AddToken(ctx, req.AccessToken, claims.ExpiresAt.Time); err != nil {
			log.Printf("[AUTH] Failed to blacklist access token: %v", err)
		}
	}

	if err := s.sessionRepo.DeleteByTokenHash(ctx, hashToken(req.RefreshToken)); err != nil {
		return apperrors.Internal("failed to end session", err)
	}

	return nil
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword rehashes the credential and invalidates every outstanding
// session and token for the user.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return apperrors.NotFound("user not found")
	}

	ok, err := hash.Verify(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return apperrors.Internal("failed to verify password", err)
	}
	if !ok {
		return apperrors.Validation("current password is incorrect")
	}

	newHash, err := hash.Password(req.NewPassword)
	if err != nil {
		return apperrors.Internal("failed to hash password", err)
	}

	user.PasswordHash = newHash
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return apperrors.Internal("failed to update password", err)
	}

	return s.InvalidateAllUserSessions(ctx, userID)
}

// InvalidateAllUserSessions deletes the user's refresh sessions and marks all
// previously issued tokens as revoked.
func (s *AuthService) InvalidateAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	sessions, err := s.sessionRepo.GetByUserID(ctx, userID)
	if err != nil {
		return apperrors.Internal("failed to list sessions", err)
	}
	for _, sess := range sessions {
		if err := s.sessionRepo.Delete(ctx, sess.ID); err != nil {
			log.Printf("[AUTH] Failed to delete session %s: %v", sess.ID, err)
		}
	}

	if err := s.blacklist.BlacklistUser(ctx, userID.String(), s.cfg.Token.RefreshTokenExpiry); err != nil {
		return apperrors.Internal("failed to revoke issued tokens", err)
	}

	return nil
}
