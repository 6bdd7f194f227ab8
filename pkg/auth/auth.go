package auth

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/rhuss/letsplay/pkg/api"
)

// AuthDecision represents the three possible outcomes of authentication.
type AuthDecision int

const (
	// Yes means credentials are valid. The chain stops and the identity is used.
	Yes AuthDecision = iota

	// No means credentials are present but invalid. The chain stops and the
	// request continues anonymously.
	No

	// Abstain means this authenticator cannot handle the credentials type.
	// The chain continues to the next authenticator.
	Abstain
)

// String returns the decision name.
func (d AuthDecision) String() string {
	switch d {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "abstain"
	}
}

// AuthResult carries the outcome of an authentication attempt.
type AuthResult struct {
	Decision AuthDecision
	Identity *Identity // populated only when Decision == Yes
	Err      error     // populated only when Decision == No
}

// Identity represents an authenticated caller. It is built per request and
// never cached.
type Identity struct {
	// Subject is the user ID (required, non-empty).
	Subject string

	// Roles holds the role names the subject currently has, e.g. "ADMIN".
	Roles []string
}

// HasRole reports whether the identity holds role.
func (id *Identity) HasRole(role string) bool {
	return id != nil && slices.Contains(id.Roles, role)
}

// IsAdmin reports whether the identity holds the administrator role.
func (id *Identity) IsAdmin() bool {
	return id.HasRole(api.RoleAdmin)
}

// Authenticator examines request credentials and returns a three-outcome vote.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) AuthResult
}

// RoleResolver returns the current roles of a subject.
type RoleResolver interface {
	ResolveRoles(ctx context.Context, subject string) ([]string, error)
}

// RoleResolverFunc adapts a function to RoleResolver.
type RoleResolverFunc func(ctx context.Context, subject string) ([]string, error)

// ResolveRoles calls f.
func (f RoleResolverFunc) ResolveRoles(ctx context.Context, subject string) ([]string, error) {
	return f(ctx, subject)
}

// Sentinel errors.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access denied")
)

// AuthChain evaluates authenticators in order using three-outcome voting.
type AuthChain struct {
	// Authenticators are evaluated left to right.
	Authenticators []Authenticator
}

// Authenticate runs the chain. Stops on the first Yes or No.
// If all abstain, the result is Abstain.
func (c *AuthChain) Authenticate(ctx context.Context, r *http.Request) AuthResult {
	for _, authn := range c.Authenticators {
		result := authn.Authenticate(ctx, r)
		if result.Decision != Abstain {
			return result
		}
	}
	return AuthResult{Decision: Abstain}
}

// CanModify reports whether id may change or read a resource owned by
// ownerID: the caller owns it, or is an administrator.
func CanModify(id *Identity, ownerID string) bool {
	if id == nil {
		return false
	}
	return id.IsAdmin() || (ownerID != "" && id.Subject == ownerID)
}
