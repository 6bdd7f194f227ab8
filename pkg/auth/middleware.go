package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rhuss/letsplay/pkg/debug"
	"github.com/rhuss/letsplay/pkg/observability"
)

// Middleware is the authentication filter. It runs chain and, on Yes,
// resolves the subject's roles and stores the Identity in the request
// context. It always calls next: any failure, including a panic in an
// authenticator or the resolver, leaves the request anonymous.
func Middleware(chain *AuthChain, resolver RoleResolver, bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			id, err := identify(r.Context(), chain, resolver, r)
			if err != nil {
				slog.Warn("cannot set user authentication", "path", r.URL.Path, "error", err)
			}
			if id != nil {
				debug.Log(debug.Auth, "authenticated", "subject", id.Subject, "roles", id.Roles, "path", r.URL.Path)
				r = r.WithContext(SetIdentity(r.Context(), id))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// identify returns the request identity, or nil for an anonymous request.
// A non-nil error is diagnostic only.
func identify(ctx context.Context, chain *AuthChain, resolver RoleResolver, r *http.Request) (id *Identity, err error) {
	defer func() {
		if p := recover(); p != nil {
			id = nil
			err = fmt.Errorf("panic during authentication: %v", p)
		}
	}()

	result := chain.Authenticate(ctx, r)
	switch result.Decision {
	case Abstain:
		return nil, nil
	case No:
		debug.Log(debug.Auth, "credentials rejected", "path", r.URL.Path, "error", result.Err)
		return nil, nil
	}

	if result.Identity == nil || result.Identity.Subject == "" {
		return nil, fmt.Errorf("authenticator returned identity with empty subject")
	}

	roles := result.Identity.Roles
	if resolver != nil {
		roles, err = resolver.ResolveRoles(ctx, result.Identity.Subject)
		if err != nil {
			observability.AuthTokenRejectedTotal.WithLabelValues("unknown_subject").Inc()
			return nil, fmt.Errorf("resolving roles for %s: %w", result.Identity.Subject, err)
		}
	}

	return &Identity{Subject: result.Identity.Subject, Roles: roles}, nil
}

// DefaultBypassEndpoints lists endpoints that skip the rate limiter and authentication.
var DefaultBypassEndpoints = []string{"/healthz", "/readyz", "/metrics"}
