package api

import "github.com/google/uuid"

// NewID returns a new random entity identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidateID reports whether id is a well-formed entity identifier.
func ValidateID(id string) bool {
	return uuid.Validate(id) == nil
}
