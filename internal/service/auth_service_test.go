package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumapress/panel-service/internal/apperrors"
	"github.com/lumapress/panel-service/internal/domain"
	"github.com/lumapress/panel-service/pkg/hash"
)

func seedUser(t *testing.T, env *testEnv, email, password string) *domain.User {
	t.Helper()

	passwordHash, err := hash.Password(password)
	require.NoError(t, err)

	user := &domain.User{
		ID:               uuid.New(),
		Email:            email,
		PasswordHash:     passwordHash,
		FirstName:        "Dana",
		LastName:         "Levi",
		Status:           domain.UserStatusActive,
		RegistrationStep: domain.StepCompleted,
	}
	env.userRepo.put(user)
	return user
}

func newAuthService(env *testEnv) *AuthService {
	// Blacklist is nil: the login paths under test never touch Redis.
	return NewAuthService(env.userRepo, env.sessRepo, env.tokenSvc, nil, env.cfg)
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	user := seedUser(t, env, "dana@example.com", "correct-horse")

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Dana@Example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)

	sessions, err := env.sessRepo.GetByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
	assert.Equal(t, hashToken(resp.Tokens.RefreshToken), sessions[0].RefreshTokenHash)
}

func TestLogin_WrongPasswordSameMessageAsUnknownEmail(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	seedUser(t, env, "dana@example.com", "correct-horse")

	_, errWrong := svc.Login(context.Background(), LoginRequest{Email: "dana@example.com", Password: "nope"})
	_, errUnknown := svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "nope"})

	require.Error(t, errWrong)
	require.Error(t, errUnknown)
	assert.Equal(t, apperrors.MessageOf(errWrong), apperrors.MessageOf(errUnknown))
}

func TestLogin_LockoutAfterRepeatedFailures(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	user := seedUser(t, env, "dana@example.com", "correct-horse")

	for i := 0; i < env.cfg.Auth.MaxFailedLogins; i++ {
		_, err := svc.Login(context.Background(), LoginRequest{Email: "dana@example.com", Password: "nope"})
		require.Error(t, err)
	}

	// The account is now locked even for the correct password.
	_, err := svc.Login(context.Background(), LoginRequest{Email: "dana@example.com", Password: "correct-horse"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeRateLimited))

	// The lock expires on its own.
	env.userRepo.mu.Lock()
	past := time.Now().Add(-time.Minute)
	env.userRepo.users[user.ID].LockedUntil = &past
	env.userRepo.mu.Unlock()

	_, err = svc.Login(context.Background(), LoginRequest{Email: "dana@example.com", Password: "correct-horse"})
	assert.NoError(t, err)
}

func TestLogin_InactiveUserRejected(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	user := seedUser(t, env, "dana@example.com", "correct-horse")
	env.userRepo.mu.Lock()
	env.userRepo.users[user.ID].Status = domain.UserStatusInactive
	env.userRepo.mu.Unlock()

	_, err := svc.Login(context.Background(), LoginRequest{Email: "dana@example.com", Password: "correct-horse"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}

func TestHashToken_Deterministic(t *testing.T) {
	assert.Equal(t, hashToken("abc"), hashToken("abc"))
	assert.NotEqual(t, hashToken("abc"), hashToken("abd"))
	assert.Len(t, hashToken("abc"), 64)
}
