package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "jwt:blacklist:"

// Blacklist records revoked tokens until their expiry. With a Redis client
// it uses keys with a TTL so revocation survives restarts and is shared
// across instances; without one it falls back to an in-process map.
type Blacklist struct {
	rdb     *redis.Client
	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewBlacklist(rdb *redis.Client) *Blacklist {
	return &Blacklist{
		rdb:     rdb,
		revoked: map[string]time.Time{},
	}
}

// Add stores a token until expiresAt.
func (b *Blacklist) Add(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if b.rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := b.rdb.Set(ctx, blacklistKeyPrefix+token, "1", ttl).Err(); err == nil {
			return
		}
		// Fall through to memory when Redis is unreachable.
	}
	b.mu.Lock()
	b.revoked[token] = expiresAt
	b.mu.Unlock()
}

// Contains reports whether a token was revoked before natural expiry.
func (b *Blacklist) Contains(token string) bool {
	if b.rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if n, err := b.rdb.Exists(ctx, blacklistKeyPrefix+token).Result(); err == nil && n > 0 {
			return true
		}
	}

	b.mu.RLock()
	expiresAt, ok := b.revoked[token]
	b.mu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		b.mu.Lock()
		delete(b.revoked, token)
		b.mu.Unlock()
		return false
	}
	return true
}
