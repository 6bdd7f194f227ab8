package auth

import (
	"log/slog"
	"net/http"
	"strings"
)

// Access is the requirement a route places on the caller.
type Access int

const (
	// Authenticated requires an identity (401 without one).
	Authenticated Access = iota

	// Public admits anonymous callers.
	Public

	// AdminOnly requires an identity with the ADMIN role (401 without an
	// identity, 403 without the role).
	AdminOnly
)

// String returns the access level name.
func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case AdminOnly:
		return "admin"
	default:
		return "authenticated"
	}
}

// Rule grants an access level to requests matching Method and Path.
type Rule struct {
	// Method restricts the rule to one HTTP method. Empty matches any method.
	Method string

	// Path is matched exactly, or as a segment prefix when Prefix is set:
	// "/api/products" then matches "/api/products" and "/api/products/1"
	// but not "/api/productsx".
	Path   string
	Prefix bool

	Access Access
}

func (r Rule) matches(method, path string) bool {
	if r.Method != "" && r.Method != method {
		return false
	}
	if path == r.Path {
		return true
	}
	return r.Prefix && strings.HasPrefix(path, strings.TrimSuffix(r.Path, "/")+"/")
}

// Policy is an ordered rule list. The first matching rule wins; requests
// matching no rule get Default.
type Policy struct {
	Rules   []Rule
	Default Access
}

// DefaultPolicy returns the route rules of the letsplay API.
func DefaultPolicy() *Policy {
	return &Policy{
		Rules: []Rule{
			{Method: http.MethodOptions, Path: "/", Prefix: true, Access: Public},
			{Path: "/healthz", Access: Public},
			{Path: "/readyz", Access: Public},
			{Path: "/metrics", Access: Public},
			{Path: "/api/auth", Prefix: true, Access: Public},
			{Method: http.MethodGet, Path: "/api/products", Prefix: true, Access: Public},
			{Method: http.MethodHead, Path: "/api/products", Prefix: true, Access: Public},
			{Method: http.MethodGet, Path: "/api/users", Access: AdminOnly},
			{Method: http.MethodPost, Path: "/api/users", Access: AdminOnly},
		},
		Default: Authenticated,
	}
}

// AccessFor returns the access level required for method and path.
func (p *Policy) AccessFor(method, path string) Access {
	for _, rule := range p.Rules {
		if rule.matches(method, path) {
			return rule.Access
		}
	}
	return p.Default
}

// Authorize enforces p using the identity stored by Middleware.
func Authorize(p *Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access := p.AccessFor(r.Method, r.URL.Path)
			if access == Public {
				next.ServeHTTP(w, r)
				return
			}

			id := IdentityFromContext(r.Context())
			if id == nil {
				slog.Info("unauthorized request", "method", r.Method, "path", r.URL.Path)
				WriteUnauthorized(w, r)
				return
			}

			if access == AdminOnly && !id.IsAdmin() {
				slog.Info("forbidden request", "method", r.Method, "path", r.URL.Path, "subject", SubjectFromContext(r.Context()))
				WriteForbidden(w, r, "Access denied: administrator role required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
