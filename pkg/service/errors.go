package service

import (
	"errors"

	"github.com/rhuss/letsplay/pkg/api"
	"github.com/rhuss/letsplay/pkg/auth"
	"github.com/rhuss/letsplay/pkg/storage"
)

// Messages shared by several operations.
const (
	msgInvalidCredentials = "Invalid email or password"
	msgEmailInUse         = "Email is already in use"
	msgAccessDenied       = "Access denied"
	msgRoleChangeDenied   = "Access denied: only administrators can change roles"
)

func errUnauthenticated() *api.APIError {
	return api.NewUnauthorizedError(auth.UnauthorizedMessage)
}

func errForbidden(message string) *api.APIError {
	return api.NewForbiddenError(message)
}

func errEmailInUse() *api.APIError {
	return api.NewInvalidRequestError("email", msgEmailInUse)
}

// notFound converts storage.ErrNotFound into a 404 APIError and passes any
// other error through unchanged.
func notFound(err error, resource, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return api.NewNotFoundError(resource, "id", id)
	}
	return err
}
