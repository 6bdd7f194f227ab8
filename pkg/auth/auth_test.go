package auth

import (
	"context"
	"net/http"
	"testing"

	"github.com/rhuss/letsplay/pkg/api"
)

// mockAuthn is a test authenticator with configurable behavior.
type mockAuthn struct {
	result AuthResult
	calls  int
}

func (m *mockAuthn) Authenticate(_ context.Context, _ *http.Request) AuthResult {
	m.calls++
	return m.result
}

var _ Authenticator = (*mockAuthn)(nil)

func TestAuthChain(t *testing.T) {
	yes := func(sub string) *mockAuthn {
		return &mockAuthn{result: AuthResult{Decision: Yes, Identity: &Identity{Subject: sub}}}
	}
	no := func() *mockAuthn { return &mockAuthn{result: AuthResult{Decision: No, Err: ErrUnauthenticated}} }
	abstain := func() *mockAuthn { return &mockAuthn{result: AuthResult{Decision: Abstain}} }

	tests := []struct {
		name         string
		authns       []Authenticator
		wantDecision AuthDecision
		wantSubject  string
	}{
		{"first yes stops", []Authenticator{yes("alice"), no()}, Yes, "alice"},
		{"first no stops", []Authenticator{no(), yes("bob")}, No, ""},
		{"abstain then yes", []Authenticator{abstain(), yes("carol")}, Yes, "carol"},
		{"all abstain", []Authenticator{abstain(), abstain()}, Abstain, ""},
		{"empty chain", nil, Abstain, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := &AuthChain{Authenticators: tt.authns}
			r, _ := http.NewRequest(http.MethodGet, "/", nil)
			result := chain.Authenticate(context.Background(), r)

			if result.Decision != tt.wantDecision {
				t.Errorf("Decision = %s, want %s", result.Decision, tt.wantDecision)
			}
			if tt.wantSubject != "" && (result.Identity == nil || result.Identity.Subject != tt.wantSubject) {
				t.Errorf("Identity = %+v, want subject %q", result.Identity, tt.wantSubject)
			}
		})
	}
}

func TestAuthChainStopsEvaluating(t *testing.T) {
	second := &mockAuthn{result: AuthResult{Decision: Yes, Identity: &Identity{Subject: "x"}}}
	chain := &AuthChain{Authenticators: []Authenticator{
		&mockAuthn{result: AuthResult{Decision: No}},
		second,
	}}
	r, _ := http.NewRequest(http.MethodGet, "/", nil)
	chain.Authenticate(context.Background(), r)

	if second.calls != 0 {
		t.Errorf("second authenticator called %d times after No, want 0", second.calls)
	}
}

func TestAuthDecisionString(t *testing.T) {
	for d, want := range map[AuthDecision]string{Yes: "yes", No: "no", Abstain: "abstain"} {
		if got := d.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", d, got, want)
		}
	}
}

func TestIdentityRoles(t *testing.T) {
	var nilID *Identity
	if nilID.HasRole(api.RoleUser) || nilID.IsAdmin() {
		t.Error("nil identity reported a role")
	}

	user := &Identity{Subject: "u1", Roles: []string{api.RoleUser}}
	if !user.HasRole(api.RoleUser) || user.IsAdmin() {
		t.Errorf("user roles misreported: %+v", user)
	}

	admin := &Identity{Subject: "a1", Roles: []string{api.RoleUser, api.RoleAdmin}}
	if !admin.IsAdmin() {
		t.Error("admin not recognized")
	}
}

func TestCanModify(t *testing.T) {
	owner := &Identity{Subject: "owner", Roles: []string{api.RoleUser}}
	other := &Identity{Subject: "other", Roles: []string{api.RoleUser}}
	admin := &Identity{Subject: "admin", Roles: []string{api.RoleAdmin}}

	tests := []struct {
		name    string
		id      *Identity
		ownerID string
		want    bool
	}{
		{"owner", owner, "owner", true},
		{"other user", other, "owner", false},
		{"admin on foreign resource", admin, "owner", true},
		{"anonymous", nil, "owner", false},
		{"empty owner never matches", &Identity{Subject: ""}, "", false},
		{"admin on unowned resource", admin, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanModify(tt.id, tt.ownerID); got != tt.want {
				t.Errorf("CanModify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()
	if IdentityFromContext(ctx) != nil {
		t.Error("empty context returned an identity")
	}
	if SubjectFromContext(ctx) != "" {
		t.Error("empty context returned a subject")
	}

	id := &Identity{Subject: "alice", Roles: []string{api.RoleUser}}
	ctx = SetIdentity(ctx, id)
	if got := IdentityFromContext(ctx); got != id {
		t.Errorf("IdentityFromContext = %+v, want %+v", got, id)
	}
	if got := SubjectFromContext(ctx); got != "alice" {
		t.Errorf("SubjectFromContext = %q, want alice", got)
	}
}
