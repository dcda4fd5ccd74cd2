package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bugzot/backend/internal/model"
)

// ActivationRepo persists single-use account activation keys.  A user has at
// most one key row: issuing a new key replaces whatever key existed before,
// consumed or not, so older emailed links stop working immediately.
type ActivationRepo struct{ DB *sql.DB }

func NewActivationRepo(db *sql.DB) *ActivationRepo { return &ActivationRepo{DB: db} }

// Issue stores a fresh activation key for the user, superseding any prior
// key for that user.
func (r *ActivationRepo) Issue(ctx context.Context, userID uint64, key string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO activation_keys (user_id, ak_key, expires_at) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE ak_key=VALUES(ak_key), expires_at=VALUES(expires_at), used_at=NULL, created_at=UTC_TIMESTAMP()`,
		userID, key, expiresAt)
	return err
}

// Get fetches a key row by its secret, regardless of use or expiry.
func (r *ActivationRepo) Get(ctx context.Context, key string) (model.ActivationKey, error) {
	var ak model.ActivationKey
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, ak_key, expires_at, used_at, created_at FROM activation_keys WHERE ak_key=? LIMIT 1",
		key).Scan(&ak.ID, &ak.UserID, &ak.Key, &ak.ExpiresAt, &ak.UsedAt, &ak.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ActivationKey{}, ErrKeyInvalid
	}
	return ak, err
}

// Consume validates a key and marks it used, returning the owning user ID.
// Unknown, already-used and expired keys all map to ErrKeyInvalid.
func (r *ActivationRepo) Consume(ctx context.Context, key string) (uint64, error) {
	ak, err := r.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if ak.UsedAt != nil || time.Now().UTC().After(ak.ExpiresAt) {
		return 0, ErrKeyInvalid
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE activation_keys SET used_at=UTC_TIMESTAMP() WHERE ak_key=? AND used_at IS NULL", key)
	if err != nil {
		return 0, err
	}
	// A concurrent consumer may have won the update; only one caller gets
	// to activate with a given key.
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrKeyInvalid
	}
	return ak.UserID, nil
}
