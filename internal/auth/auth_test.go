package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillswipe/internal/database"
)

func newTestService(t *testing.T) *AuthService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	svc, err := NewAuthService(privPEM, pubPEM, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	return svc
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	svc := newTestService(t)
	user := database.User{ID: "user-1", Role: database.RoleCompany, MustChangePassword: true}

	pair, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)

	access, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", access.UserID)
	assert.Equal(t, database.RoleCompany, access.Role)
	assert.True(t, access.MustChangePassword)
	assert.Equal(t, TokenTypeAccess, access.TokenType)

	refresh, err := svc.ValidateToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
	assert.NotEmpty(t, refresh.ID)
	assert.NotEqual(t, access.ID, refresh.ID)
}

func TestValidateToken_Rejects(t *testing.T) {
	svc := newTestService(t)
	other := newTestService(t)

	pair, err := other.GenerateTokenPair(database.User{ID: "u"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(pair.AccessToken)
	assert.Error(t, err, "token signed by another key")

	_, err = svc.ValidateToken("")
	assert.Error(t, err)

	_, err = svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestNewAuthService_RequiresKeys(t *testing.T) {
	_, err := NewAuthService(nil, []byte("x"), time.Minute, time.Hour)
	assert.Error(t, err)
	_, err = NewAuthService([]byte("x"), nil, time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestPasswordHelpers(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))

	pw, err := GenerateOneTimePassword(4)
	require.NoError(t, err)
	assert.Len(t, pw, MinPasswordLength)
}
