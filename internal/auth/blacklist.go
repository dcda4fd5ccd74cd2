package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// blacklistPrefix namespaces revoked token identifiers in Redis.
const blacklistPrefix = "blacklist:"

// Blacklist records revoked token identifiers until their tokens would have
// expired anyway.  Entries are written with TTL equal to the token's
// remaining lifetime, so the set never needs explicit cleanup.
//
// Unlike the rate limiter this store fails closed: not being able to record
// or check a revocation is a security-control failure and is surfaced as
// KindUnavailable rather than swallowed.
type Blacklist struct {
	rdb *redis.Client
}

// NewBlacklist wraps a Redis client.  The client may be nil (store down at
// startup); every operation then reports KindUnavailable.
func NewBlacklist(rdb *redis.Client) *Blacklist {
	return &Blacklist{rdb: rdb}
}

// Add revokes a token identifier for the given remaining lifetime.
func (b *Blacklist) Add(ctx context.Context, jti string, ttl time.Duration) error {
	if b == nil || b.rdb == nil {
		return E(KindUnavailable, "token revocation store unavailable")
	}
	if err := b.rdb.Set(ctx, blacklistPrefix+jti, "true", ttl).Err(); err != nil {
		return E(KindUnavailable, "token revocation store unavailable")
	}
	return nil
}

// Contains reports whether a token identifier has been revoked.
func (b *Blacklist) Contains(ctx context.Context, jti string) (bool, error) {
	if b == nil || b.rdb == nil {
		return false, E(KindUnavailable, "token revocation store unavailable")
	}
	n, err := b.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, E(KindUnavailable, "token revocation store unavailable")
	}
	return n > 0, nil
}
