package model

// Role represents a row in the `roles` table.  Users reference this table
// via their RoleID field; "reporter" is the default role at registration.
type Role struct {
	ID          uint8  // roles.id
	Name        string // roles.name (unique)
	Description string // roles.description
}

// DefaultRoleName is the role assigned to newly registered users.
const DefaultRoleName = "reporter"

// AdminRoleName gates the user-administration endpoints.
const AdminRoleName = "admin"
