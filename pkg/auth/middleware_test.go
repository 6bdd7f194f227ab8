package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/rhuss/letsplay/pkg/api"
	"github.com/rhuss/letsplay/pkg/observability"
)

func counterValue(t *testing.T, cv *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	c, err := cv.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("getting counter metric: %v", err)
	}
	if err := c.(prometheus.Metric).Write(m); err != nil {
		t.Fatalf("writing counter metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

// captureIdentity returns a handler recording the identity it sees.
func captureIdentity(got **Identity, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		*got = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

type panicAuthn struct{}

func (panicAuthn) Authenticate(context.Context, *http.Request) AuthResult { panic("broken authenticator") }

func staticRoles(roles ...string) RoleResolver {
	return RoleResolverFunc(func(context.Context, string) ([]string, error) { return roles, nil })
}

func TestMiddleware(t *testing.T) {
	yes := &mockAuthn{result: AuthResult{Decision: Yes, Identity: &Identity{Subject: "u1"}}}

	tests := []struct {
		name        string
		chain       *AuthChain
		resolver    RoleResolver
		path        string
		wantSubject string
		wantRoles   []string
	}{
		{
			name:        "valid credentials set identity with resolved roles",
			chain:       &AuthChain{Authenticators: []Authenticator{yes}},
			resolver:    staticRoles(api.RoleAdmin),
			path:        "/api/users",
			wantSubject: "u1",
			wantRoles:   []string{api.RoleAdmin},
		},
		{
			name:  "no credentials stay anonymous",
			chain: &AuthChain{Authenticators: []Authenticator{&mockAuthn{result: AuthResult{Decision: Abstain}}}},
			path:  "/api/products",
		},
		{
			name:  "rejected credentials stay anonymous",
			chain: &AuthChain{Authenticators: []Authenticator{&mockAuthn{result: AuthResult{Decision: No, Err: errors.New("expired")}}}},
			path:  "/api/products",
		},
		{
			name:     "resolver failure stays anonymous",
			chain:    &AuthChain{Authenticators: []Authenticator{yes}},
			resolver: RoleResolverFunc(func(context.Context, string) ([]string, error) { return nil, errors.New("no such user") }),
			path:     "/api/products",
		},
		{
			name:  "panicking authenticator stays anonymous",
			chain: &AuthChain{Authenticators: []Authenticator{panicAuthn{}}},
			path:  "/api/products",
		},
		{
			name:  "empty subject stays anonymous",
			chain: &AuthChain{Authenticators: []Authenticator{&mockAuthn{result: AuthResult{Decision: Yes, Identity: &Identity{}}}}},
			path:  "/api/products",
		},
		{
			name:     "bypass endpoint skips authentication",
			chain:    &AuthChain{Authenticators: []Authenticator{panicAuthn{}}},
			resolver: staticRoles(api.RoleAdmin),
			path:     "/healthz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *Identity
			var called bool
			h := Middleware(tt.chain, tt.resolver, DefaultBypassEndpoints)(captureIdentity(&got, &called))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if !called {
				t.Fatal("next handler not called; the filter must never reject")
			}
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
			if tt.wantSubject == "" {
				if got != nil {
					t.Errorf("identity = %+v, want anonymous", got)
				}
				return
			}
			if got == nil || got.Subject != tt.wantSubject {
				t.Fatalf("identity = %+v, want subject %q", got, tt.wantSubject)
			}
			if len(got.Roles) != len(tt.wantRoles) || got.Roles[0] != tt.wantRoles[0] {
				t.Errorf("roles = %v, want %v", got.Roles, tt.wantRoles)
			}
		})
	}
}

func TestMiddlewareCountsUnknownSubjects(t *testing.T) {
	before := counterValue(t, observability.AuthTokenRejectedTotal, "unknown_subject")

	chain := &AuthChain{Authenticators: []Authenticator{
		&mockAuthn{result: AuthResult{Decision: Yes, Identity: &Identity{Subject: "gone"}}},
	}}
	resolver := RoleResolverFunc(func(context.Context, string) ([]string, error) { return nil, ErrUnauthenticated })

	var got *Identity
	var called bool
	Middleware(chain, resolver, nil)(captureIdentity(&got, &called)).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/users/me", nil))

	if after := counterValue(t, observability.AuthTokenRejectedTotal, "unknown_subject"); after != before+1 {
		t.Errorf("unknown_subject counter = %v, want %v", after, before+1)
	}
}

func TestMiddlewareIdentityNotShared(t *testing.T) {
	chain := &AuthChain{Authenticators: []Authenticator{
		&mockAuthn{result: AuthResult{Decision: Yes, Identity: &Identity{Subject: "u1"}}},
	}}
	var seen []*Identity
	h := Middleware(chain, staticRoles(api.RoleUser), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, IdentityFromContext(r.Context()))
	}))

	for range 2 {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/users/me", nil))
	}
	if len(seen) != 2 || seen[0] == seen[1] {
		t.Error("identity reused across requests")
	}
}
