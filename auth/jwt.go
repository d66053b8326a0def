// Package auth issues and verifies the signed, time-limited credentials that
// bind a request to a user id, and tracks tokens revoked before their
// natural expiry.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"blogapi/config"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
)

// Claims carried inside every issued token.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Manager signs and verifies HS256 tokens with the configured secret.
type Manager struct {
	secret    []byte
	ttl       time.Duration
	blacklist *Blacklist
}

func NewManager(cfg *config.Config, rdb *redis.Client) *Manager {
	return &Manager{
		secret:    []byte(cfg.JWTSecret),
		ttl:       cfg.TokenTTL,
		blacklist: NewBlacklist(rdb),
	}
}

// GenerateToken issues a token for userID valid for the configured TTL.
func (m *Manager) GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// keyfunc hands the secret to the parser, refusing any token not signed
// with an HMAC method.
func (m *Manager) keyfunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unexpected signing method")
	}
	return m.secret, nil
}

// ParseToken verifies signature, expiry and revocation, returning the claims.
func (m *Manager) ParseToken(tokenStr string) (*Claims, error) {
	if m.blacklist.Contains(tokenStr) {
		return nil, ErrTokenRevoked
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, m.keyfunc)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Revoke blacklists a token until it would have expired anyway.
func (m *Manager) Revoke(tokenStr string) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, m.keyfunc)
	if err != nil || !parsed.Valid || claims.ExpiresAt == nil {
		return
	}
	m.blacklist.Add(tokenStr, claims.ExpiresAt.Time)
}
