package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rhuss/letsplay/pkg/api"
)

func TestDefaultPolicyAccess(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		method string
		path   string
		want   Access
	}{
		{http.MethodPost, "/api/auth/signin", Public},
		{http.MethodPost, "/api/auth/signup", Public},
		{http.MethodGet, "/api/products", Public},
		{http.MethodGet, "/api/products/abc", Public},
		{http.MethodGet, "/api/products/user/u1", Public},
		{http.MethodHead, "/api/products", Public},
		{http.MethodHead, "/api/products/abc", Public},
		{http.MethodHead, "/api/users", Authenticated},
		{http.MethodPost, "/api/products", Authenticated},
		{http.MethodPut, "/api/products/abc", Authenticated},
		{http.MethodDelete, "/api/products/abc", Authenticated},
		{http.MethodGet, "/api/users", AdminOnly},
		{http.MethodPost, "/api/users", AdminOnly},
		{http.MethodGet, "/api/users/me", Authenticated},
		{http.MethodGet, "/api/users/u1", Authenticated},
		{http.MethodDelete, "/api/users/u1", Authenticated},
		{http.MethodGet, "/api/productsx", Authenticated},
		{http.MethodGet, "/api/authx", Authenticated},
		{http.MethodGet, "/healthz", Public},
		{http.MethodGet, "/metrics", Public},
		{http.MethodOptions, "/api/users", Public},
		{http.MethodGet, "/somewhere/else", Authenticated},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if got := p.AccessFor(tt.method, tt.path); got != tt.want {
				t.Errorf("AccessFor = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	user := &Identity{Subject: "u1", Roles: []string{api.RoleUser}}
	admin := &Identity{Subject: "a1", Roles: []string{api.RoleAdmin}}

	tests := []struct {
		name       string
		method     string
		path       string
		identity   *Identity
		wantStatus int
	}{
		{"public anonymous", http.MethodGet, "/api/products", nil, http.StatusOK},
		{"protected anonymous", http.MethodPost, "/api/products", nil, http.StatusUnauthorized},
		{"protected user", http.MethodPost, "/api/products", user, http.StatusOK},
		{"admin route anonymous", http.MethodGet, "/api/users", nil, http.StatusUnauthorized},
		{"admin route user", http.MethodGet, "/api/users", user, http.StatusForbidden},
		{"admin route admin", http.MethodGet, "/api/users", admin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			h := Authorize(DefaultPolicy())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.identity != nil {
				req = req.WithContext(SetIdentity(req.Context(), tt.identity))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if called != (tt.wantStatus == http.StatusOK) {
				t.Errorf("handler called = %v for status %d", called, tt.wantStatus)
			}
		})
	}
}

func TestAuthorizeUnauthorizedEnvelope(t *testing.T) {
	h := Authorize(DefaultPolicy())(http.NotFoundHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/products/p1", nil))

	var e api.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&e); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if e.Status != http.StatusUnauthorized || e.Error != "Unauthorized" {
		t.Errorf("envelope = %+v", e)
	}
	if e.Message != UnauthorizedMessage || e.Path != "/api/products/p1" {
		t.Errorf("envelope = %+v", e)
	}
}
