package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogapi/config"
)

func testManager(ttl time.Duration) *Manager {
	return NewManager(&config.Config{JWTSecret: "test-secret", TokenTTL: ttl}, nil)
}

func TestTokenRoundTrip(t *testing.T) {
	m := testManager(time.Hour)

	token, err := m.GenerateToken("64f0c2a9e13a5b0001020304")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "64f0c2a9e13a5b0001020304", claims.UserID)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := testManager(-time.Minute)

	token, err := m.GenerateToken("user1")
	require.NoError(t, err)

	_, err = m.ParseToken(token)
	assert.Error(t, err)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issuer := testManager(time.Hour)
	verifier := NewManager(&config.Config{JWTSecret: "other-secret", TokenTTL: time.Hour}, nil)

	token, err := issuer.GenerateToken("user1")
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.Error(t, err)
}

func TestRevokedTokenIsRejected(t *testing.T) {
	m := testManager(time.Hour)

	token, err := m.GenerateToken("user1")
	require.NoError(t, err)

	_, err = m.ParseToken(token)
	require.NoError(t, err)

	m.Revoke(token)

	_, err = m.ParseToken(token)
	assert.True(t, errors.Is(err, ErrTokenRevoked))
}

func TestRevokeIgnoresNonHMACToken(t *testing.T) {
	m := testManager(time.Hour)

	claims := &Claims{
		UserID: "user1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	m.Revoke(unsigned)
	assert.False(t, m.blacklist.Contains(unsigned))
}

func TestRevokeIgnoresGarbageToken(t *testing.T) {
	m := testManager(time.Hour)
	m.Revoke("not-a-jwt")

	token, err := m.GenerateToken("user1")
	require.NoError(t, err)
	_, err = m.ParseToken(token)
	assert.NoError(t, err)
}
