// Package transport provides the HTTP middleware chain and the JSON error
// envelope for the letsplay API.
//
// # Middleware
//
// A [Middleware] wraps an http.Handler. [Chain] composes middleware in the
// order given, so the pipeline is an explicit list assembled at startup
// rather than implied by registration order. Built-in middleware provides
// panic recovery, request ID assignment (X-Request-ID), structured access
// logging via log/slog, HTTPS enforcement, security headers, and CORS.
//
// # Errors
//
// Every failed request other than a rate limit rejection is answered with
// the [api.ErrorResponse] envelope:
//
//	{"timestamp":"...","status":404,"error":"Not Found","message":"...","path":"/api/products/1"}
//
// Server errors never carry internal detail.
package transport
