package integration

import (
	"net/http"
	"testing"

	"github.com/rhuss/letsplay/pkg/api"
)

func TestSeedAdminSignIn(t *testing.T) {
	c := newClient(t)
	resp := c.do(http.MethodPost, "/api/auth/signin", api.LoginRequest{
		Email:    "admin@example.com",
		Password: "admin123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var jwt api.JwtResponse
	decodeJSON(t, resp, &jwt)
	if jwt.Type != "Bearer" {
		t.Errorf("type = %q, want Bearer", jwt.Type)
	}
	if jwt.Role != api.RoleAdmin {
		t.Errorf("role = %q, want %q", jwt.Role, api.RoleAdmin)
	}
	if jwt.Token == "" {
		t.Error("token is empty")
	}
}

func TestSignInFailuresLookAlike(t *testing.T) {
	c := newClient(t)

	wrongPassword := expectError(t, c.do(http.MethodPost, "/api/auth/signin", api.LoginRequest{
		Email: "admin@example.com", Password: "not-the-password",
	}), http.StatusUnauthorized)
	unknownEmail := expectError(t, c.do(http.MethodPost, "/api/auth/signin", api.LoginRequest{
		Email: "nobody@example.com", Password: "whatever1",
	}), http.StatusUnauthorized)

	if wrongPassword.Message != unknownEmail.Message {
		t.Errorf("messages differ: %q vs %q", wrongPassword.Message, unknownEmail.Message)
	}
}

func TestSignUpThenAccessOwnProfile(t *testing.T) {
	c := newClient(t)
	user, token := c.signUp("Alice")

	if user.Role != api.RoleUser {
		t.Errorf("role = %q, want %q", user.Role, api.RoleUser)
	}

	resp := c.as(token).do(http.MethodGet, "/api/users/me", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var me api.UserResponse
	decodeJSON(t, resp, &me)
	if me.ID != user.ID {
		t.Errorf("me.ID = %q, want %q", me.ID, user.ID)
	}
}

func TestSignUpCannotChooseRole(t *testing.T) {
	c := newClient(t)
	resp := c.do(http.MethodPost, "/api/auth/signup", api.UserCreateRequest{
		Name:     "Mallory",
		Email:    "mallory.role@example.com",
		Password: "secret123",
		Role:     api.RoleAdmin,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var user api.UserResponse
	decodeJSON(t, resp, &user)
	if user.Role != api.RoleUser {
		t.Errorf("role = %q, want %q", user.Role, api.RoleUser)
	}
}

func TestAnonymousProtectedRoute(t *testing.T) {
	c := newClient(t)

	for _, path := range []string{"/api/users/me", "/api/users"} {
		env := expectError(t, c.do(http.MethodGet, path, nil), http.StatusUnauthorized)
		if env.Path != path {
			t.Errorf("path = %q, want %q", env.Path, path)
		}
		if env.Message != "Full authentication is required to access this resource" {
			t.Errorf("message = %q", env.Message)
		}
	}
}

func TestInvalidTokenIsAnonymous(t *testing.T) {
	c := newClient(t).as("not.a.token")

	// Public routes still work with a bad token.
	resp := c.do(http.MethodGet, "/api/products", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("public route: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	expectError(t, c.do(http.MethodGet, "/api/users/me", nil), http.StatusUnauthorized)
}

func TestUserListIsAdminOnly(t *testing.T) {
	c := newClient(t)
	_, userToken := c.signUp("Bob")

	env := expectError(t, c.as(userToken).do(http.MethodGet, "/api/users", nil), http.StatusForbidden)
	if env.Path != "/api/users" {
		t.Errorf("path = %q", env.Path)
	}

	adminToken := c.signIn("admin@example.com", "admin123")
	resp := c.as(adminToken).do(http.MethodGet, "/api/users", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var users []api.UserResponse
	decodeJSON(t, resp, &users)
	if len(users) < 2 {
		t.Errorf("got %d users, want at least the seed accounts", len(users))
	}
}

func TestDeletedUserTokenStopsWorking(t *testing.T) {
	c := newClient(t)
	user, token := c.signUp("Carol")

	resp := c.as(token).do(http.MethodDelete, "/api/users/"+user.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	resp.Body.Close()

	// The token is still well formed but its subject no longer resolves.
	expectError(t, c.as(token).do(http.MethodGet, "/api/users/me", nil), http.StatusUnauthorized)
}
