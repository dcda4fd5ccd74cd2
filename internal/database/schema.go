package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema contains the DDL for the tables this service owns.  Email
// uniqueness is scoped to non-deleted rows: MySQL has no partial unique
// indexes, so a stored generated column carries the email only while the row
// is live (NULL once soft-deleted) and the unique key sits on that column.
// NULLs are exempt from uniqueness, so a deleted user's email can be
// re-registered while at most one live row per address can exist.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS roles (
		id          TINYINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name        VARCHAR(32) NOT NULL UNIQUE,
		description VARCHAR(255) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id             BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email          VARCHAR(255) NOT NULL,
		password_hash  VARCHAR(255) NOT NULL,
		full_name      VARCHAR(255) NULL,
		role_id        TINYINT UNSIGNED NOT NULL,
		is_active      TINYINT(1) NOT NULL DEFAULT 1,
		is_verified    TINYINT(1) NOT NULL DEFAULT 0,
		is_deleted     TINYINT(1) NOT NULL DEFAULT 0,
		login_attempts INT UNSIGNED NOT NULL DEFAULT 0,
		last_login     DATETIME NULL,
		created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		deleted_at     DATETIME NULL,
		live_email     VARCHAR(255) AS (IF(is_deleted, NULL, email)) STORED,
		UNIQUE KEY uq_users_email_live (live_email),
		KEY ix_users_email (email),
		CONSTRAINT fk_users_role FOREIGN KEY (role_id) REFERENCES roles(id)
	)`,
	`CREATE TABLE IF NOT EXISTS activation_keys (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		ak_key     VARCHAR(128) NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		used_at    DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_activation_user (user_id),
		CONSTRAINT fk_activation_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
}

// seedRoles inserts the built-in roles if they do not exist yet.  "reporter"
// is the default role assigned at registration.
var seedRoles = `INSERT IGNORE INTO roles (name, description) VALUES
	('reporter', 'Default role: can file and follow bugs'),
	('developer', 'Can be assigned bugs and resolve them'),
	('admin', 'Full administrative access')`

// Migrate creates the auth tables and seeds the built-in roles.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, seedRoles); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	return nil
}
