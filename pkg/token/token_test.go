package token

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumapress/panel-service/internal/domain"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	svc, err := NewService(privPEM, pubPEM, 15*time.Minute, 7*24*time.Hour, "panel-service-test")
	require.NoError(t, err)
	return svc
}

func TestRegistrationTokenRoundTrip(t *testing.T) {
	svc := newTestService(t)

	regID := uuid.New()
	expiresAt := time.Now().Add(time.Hour)

	raw, err := svc.GenerateRegistrationToken(regID, "dana@example.com", expiresAt)
	require.NoError(t, err)

	claims, err := svc.Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenTypeRegistration, claims.TokenType)
	require.NotNil(t, claims.RegistrationID)
	assert.Equal(t, regID, *claims.RegistrationID)
	assert.Equal(t, "dana@example.com", claims.Email)
}

func TestTokenPairRoundTrip(t *testing.T) {
	svc := newTestService(t)

	user := &domain.User{ID: uuid.New(), Email: "dana@example.com"}

	pair, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)

	access, err := svc.Validate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenTypeAccess, access.TokenType)
	assert.Equal(t, user.ID, access.UserID)

	refresh, err := svc.Validate(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenTypeRefresh, refresh.TokenType)
}

func TestValidate_ExpiredToken(t *testing.T) {
	svc := newTestService(t)

	raw, err := svc.GenerateRegistrationToken(uuid.New(), "dana@example.com", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = svc.Validate(raw)
	assert.Error(t, err)
}

func TestValidate_Garbage(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Validate("not.a.token")
	assert.Error(t, err)
}
