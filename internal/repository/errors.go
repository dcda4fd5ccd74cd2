// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the auth
// orchestrator and handlers to distinguish between failure scenarios without
// inspecting driver-specific errors. ErrEmailExists in particular is how a
// duplicate-key race on registration surfaces: two requests can both pass
// the advisory uniqueness pre-check, and the loser of the insert race gets
// this error instead of a raw driver failure.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no live row. Handlers
// translate this into an HTTP 404 (or 401 on credential lookups, where
// existence must not leak).
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert or update would claim an email
// already owned by a non-deleted user. Handlers translate this into 409.
var ErrEmailExists = errors.New("email already exists")

// ErrKeyInvalid is returned when an activation key is unknown, already
// consumed, or past its expiry.
var ErrKeyInvalid = errors.New("activation key invalid")

// ErrConstraint is returned when a write violates a referential constraint,
// such as assigning a user a role id that does not exist. Handlers translate
// this into 400.
var ErrConstraint = errors.New("constraint violation")
