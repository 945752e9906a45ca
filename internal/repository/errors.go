// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios with
// errors.Is instead of matching formatted message strings. ErrNotFound
// covers lookups of ids with no backing row, ErrConflict covers
// operations that are invalid for the record's current status (for
// example approving a visit that is no longer pending), and ErrForbidden
// covers callers lacking the required role.
package repository

import "errors"

// ErrNotFound is returned when an entity id has no backing record.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as deciding a visit that has already been
// decided. Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller attempts an operation
// reserved for a higher role. Handlers should translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrEmailExists is returned when creating an account with an email that
// is already registered.
var ErrEmailExists = errors.New("email already exists")
