package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rhuss/letsplay/pkg/api"
	"github.com/rhuss/letsplay/pkg/auth"
	"github.com/rhuss/letsplay/pkg/storage"
)

// Users handles user administration.
type Users struct {
	store  storage.Store
	hasher *Hasher
	now    func() time.Time
}

// NewUsers creates the user service.
func NewUsers(store storage.Store, opts ...Option) *Users {
	o := buildOptions(opts)
	return &Users{store: store, hasher: o.hasher, now: o.now}
}

// List returns all users. Administrators only.
func (s *Users) List(ctx context.Context, caller *auth.Identity) ([]api.UserResponse, error) {
	if caller == nil {
		return nil, errUnauthenticated()
	}
	if !caller.IsAdmin() {
		return nil, errForbidden(msgAccessDenied)
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	out := make([]api.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToResponse())
	}
	return out, nil
}

// Get returns a user. Callers may read themselves; administrators may read
// anyone.
func (s *Users) Get(ctx context.Context, caller *auth.Identity, id string) (*api.UserResponse, error) {
	if err := s.checkAccess(caller, id); err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, notFound(err, "User", id)
	}
	resp := u.ToResponse()
	return &resp, nil
}

// Me returns the caller's own user.
func (s *Users) Me(ctx context.Context, caller *auth.Identity) (*api.UserResponse, error) {
	if caller == nil {
		return nil, errUnauthenticated()
	}
	return s.Get(ctx, caller, caller.Subject)
}

// Create adds a user with an arbitrary role. Administrators only.
func (s *Users) Create(ctx context.Context, caller *auth.Identity, req *api.UserCreateRequest) (*api.UserResponse, error) {
	if caller == nil {
		return nil, errUnauthenticated()
	}
	if !caller.IsAdmin() {
		return nil, errForbidden(msgAccessDenied)
	}

	u, err := createUser(ctx, s.store, s.hasher, req, s.now())
	if err != nil {
		return nil, err
	}
	slog.Info("user created", "subject", u.ID, "role", u.Role, "by", caller.Subject)
	resp := u.ToResponse()
	return &resp, nil
}

// Update applies the fields present in req. Only administrators may change
// a role; setting the current role again is not a change.
func (s *Users) Update(ctx context.Context, caller *auth.Identity, id string, req *api.UserUpdateRequest) (*api.UserResponse, error) {
	if err := s.checkAccess(caller, id); err != nil {
		return nil, err
	}
	if err := api.ValidateUserUpdate(req); err != nil {
		return nil, err
	}

	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, notFound(err, "User", id)
	}

	if req.Role != nil && *req.Role != u.Role {
		if !caller.IsAdmin() {
			return nil, errForbidden(msgRoleChangeDenied)
		}
		u.Role = *req.Role
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		u.PasswordHash = hash
	}
	u.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, notFound(err, "User", id)
	}
	resp := u.ToResponse()
	return &resp, nil
}

// Delete removes a user together with every product the user owns.
func (s *Users) Delete(ctx context.Context, caller *auth.Identity, id string) error {
	if err := s.checkAccess(caller, id); err != nil {
		return err
	}
	if _, err := s.store.GetUser(ctx, id); err != nil {
		return notFound(err, "User", id)
	}

	n, err := s.store.DeleteUser(ctx, id)
	if err != nil {
		return notFound(err, "User", id)
	}
	slog.Info("user deleted", "subject", id, "products", n, "by", caller.Subject)
	return nil
}

// checkAccess requires caller to be the user id or an administrator.
func (s *Users) checkAccess(caller *auth.Identity, id string) error {
	if caller == nil {
		return errUnauthenticated()
	}
	if !auth.CanModify(caller, id) {
		return errForbidden(msgAccessDenied)
	}
	return nil
}

// RoleResolver returns an auth.RoleResolver that reads the subject's
// current role from users. A subject without a user record yields an error,
// which leaves the request anonymous.
func RoleResolver(users storage.UserStore) auth.RoleResolver {
	return auth.RoleResolverFunc(func(ctx context.Context, subject string) ([]string, error) {
		u, err := users.GetUser(ctx, subject)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("subject %q: %w", subject, auth.ErrUnauthenticated)
		}
		if err != nil {
			return nil, err
		}
		return []string{u.Role}, nil
	})
}
