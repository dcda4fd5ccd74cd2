package model

import "time"

// ActivationKey is a single-use, time-limited secret mailed to a new user.
// At most one unconsumed key exists per user; issuing a new one supersedes
// the previous key.
type ActivationKey struct {
	ID        uint64     // activation_keys.id
	UserID    uint64     // activation_keys.user_id
	Key       string     // activation_keys.ak_key (URL-safe random secret)
	ExpiresAt time.Time  // activation_keys.expires_at
	UsedAt    *time.Time // activation_keys.used_at (nullable)
	CreatedAt time.Time  // activation_keys.created_at
}
