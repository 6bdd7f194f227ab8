// Package auth provides authentication and authorization for letsplay.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// invalid), or Abstain (can't handle). The authentication filter never
// rejects a request: a No or an all-Abstain outcome simply leaves the
// request anonymous. On Yes, the subject's current roles are resolved and
// the resulting Identity is stored in the request context.
//
// The authorization [Policy] then decides per method and path whether the
// request may proceed, answering 401 when an identity is required but
// missing and 403 when the identity lacks the administrator role.
// Ownership of individual resources is checked by the business logic
// with [CanModify].
package auth
