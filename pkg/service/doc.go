// Package service implements the business operations behind the letsplay
// HTTP routes: sign-in and sign-up, user administration, and product
// management.
//
// Every operation that touches an owned resource receives the caller's
// [auth.Identity] explicitly and decides access with [auth.CanModify].
// Expected failures are returned as [*api.APIError] values so the
// transport layer can map them to status codes; anything else is an
// internal error.
package service
