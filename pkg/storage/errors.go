package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a user or product does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a record with the same ID or a user with
	// the same email already exists.
	ErrConflict = errors.New("record already exists")
)
