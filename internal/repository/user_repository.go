package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/bugzot/backend/internal/model"
)

// UserRepo provides access to the 'users' table.  All email parameters are
// normalized (lower-cased, trimmed) before hitting the database, and every
// read excludes soft-deleted rows unless stated otherwise.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `u.id, u.email, u.password_hash, u.full_name, u.role_id, r.name,
	u.is_active, u.is_verified, u.is_deleted, u.login_attempts, u.last_login,
	u.created_at, u.updated_at, u.deleted_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.RoleID, &u.RoleName,
		&u.IsActive, &u.IsVerified, &u.IsDeleted, &u.LoginAttempts, &u.LastLogin,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	return u, err
}

// Create inserts a user and returns its ID.  The password must already be
// hashed by the caller.  A duplicate live email maps to ErrEmailExists,
// whether it was caught here or by the unique constraint during a race.
func (r *UserRepo) Create(ctx context.Context, email, passwordHash string, fullName *string, roleID uint8) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, full_name, role_id) VALUES (?,?,?,?)",
		email, passwordHash, fullName, roleID)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		if isForeignKeyViolation(err) {
			return 0, ErrConstraint
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a non-deleted user by normalized email.  Inactive users
// are still returned; the orchestrator decides how to report them.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u JOIN roles r ON r.id=u.role_id WHERE u.email=? AND u.is_deleted=0 LIMIT 1",
		email))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by id, filtered to active and non-deleted rows.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u JOIN roles r ON r.id=u.role_id WHERE u.id=? AND u.is_active=1 AND u.is_deleted=0 LIMIT 1",
		id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// EmailTaken reports whether a non-deleted user already owns the email.
// This is the advisory fast-path check; the unique constraint is the
// authority under concurrency.
func (r *UserRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE email=? AND is_deleted=0 LIMIT 1", email).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IncrementLoginAttempts bumps the persistent wrong-password counter.
func (r *UserRepo) IncrementLoginAttempts(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET login_attempts=login_attempts+1 WHERE id=?", id)
	return err
}

// ResetLoginAttempts zeroes the counter and stamps last_login in one write.
func (r *UserRepo) ResetLoginAttempts(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET login_attempts=0, last_login=UTC_TIMESTAMP() WHERE id=?", id)
	return err
}

// MarkVerified flips is_verified after an activation key is consumed.
func (r *UserRepo) MarkVerified(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_verified=1 WHERE id=?", id)
	return err
}

// Update rewrites the admin-editable profile fields.  The caller passes the
// full desired state (fetch, mutate, update); email must be normalized and
// the name sanitized before calling.
func (r *UserRepo) Update(ctx context.Context, id uint64, email string, fullName *string, roleID uint8, active bool) error {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET email=?, full_name=?, role_id=?, is_active=? WHERE id=? AND is_deleted=0",
		email, fullName, roleID, active, id)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		if isForeignKeyViolation(err) {
			return ErrConstraint
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Zero rows can also mean a no-op write to an existing row; confirm
		// the row is actually gone before reporting ErrNotFound.
		var one int
		if err := r.DB.QueryRowContext(ctx,
			"SELECT 1 FROM users WHERE id=? AND is_deleted=0 LIMIT 1", id).Scan(&one); errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

// SoftDelete marks a user deleted and stamps deleted_at.  The row is never
// purged by this service.  Deleting an already-deleted user is ErrNotFound.
func (r *UserRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_deleted=1, deleted_at=UTC_TIMESTAMP() WHERE id=? AND is_deleted=0", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of non-deleted users ordered by id, plus the total
// count of non-deleted rows for pagination metadata.
func (r *UserRepo) List(ctx context.Context, offset, limit int) ([]model.User, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE is_deleted=0").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users u JOIN roles r ON r.id=u.role_id WHERE u.is_deleted=0 ORDER BY u.id LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// isDuplicateKey detects MySQL error 1062 (duplicate entry for a unique key).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

// isForeignKeyViolation detects MySQL error 1452 (cannot add or update a
// child row: a foreign key constraint fails), e.g. an unknown role_id.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1452")
}
