package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column.  The json tags are omitted
// because these structs are used by the repository layer; handlers define
// separate response types so the password hash can never leak into a body.
//
// State flags:
//
//	IsActive   – inactive users exist for audit purposes but never authenticate.
//	IsVerified – set once the activation key is consumed.
//	IsDeleted  – soft delete; the row is kept, the email becomes reusable.
type User struct {
	ID            uint64     // users.id
	Email         string     // users.email (stored lower-cased and trimmed)
	PasswordHash  string     // users.password_hash (bcrypt)
	FullName      *string    // users.full_name (nullable, sanitized before insert)
	RoleID        uint8      // users.role_id (references roles.id)
	RoleName      string     // roles.name, populated by JOIN reads
	IsActive      bool       // users.is_active
	IsVerified    bool       // users.is_verified
	IsDeleted     bool       // users.is_deleted
	LoginAttempts uint32     // users.login_attempts (wrong-password counter)
	LastLogin     *time.Time // users.last_login (nullable)
	CreatedAt     time.Time  // users.created_at
	UpdatedAt     time.Time  // users.updated_at
	DeletedAt     *time.Time // users.deleted_at (nullable)
}
