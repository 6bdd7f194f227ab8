// Package api defines the core domain and wire types for the letsplay API.
//
// This package provides the entities (users and products), the request and
// response bodies exchanged over HTTP, field validation, typed API errors,
// and identifier generation.
//
// Core types:
//   - [User]: an account with a role (USER or ADMIN) and a bcrypt password hash
//   - [Product]: an item owned by exactly one user
//   - [APIError]: structured error with type, param, and message
//   - [ErrorResponse]: the JSON error envelope written for every failed request
//
// The package performs no I/O.
package api
