package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rhuss/letsplay/pkg/api"
	"github.com/rhuss/letsplay/pkg/auth/jwt"
	"github.com/rhuss/letsplay/pkg/debug"
	"github.com/rhuss/letsplay/pkg/storage"
)

// Accounts handles sign-in and self-registration.
type Accounts struct {
	users  storage.UserStore
	codec  *jwt.Codec
	hasher *Hasher
	now    func() time.Time

	// dummyHash is compared against when the email is unknown so that
	// lookups for missing and existing accounts take similar time.
	dummyHash string
}

// Option configures the services.
type Option func(*options)

type options struct {
	now    func() time.Time
	hasher *Hasher
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithHasher overrides the password hasher.
func WithHasher(h *Hasher) Option {
	return func(o *options) { o.hasher = h }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, hasher: NewHasher(0)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewAccounts creates the account service.
func NewAccounts(users storage.UserStore, codec *jwt.Codec, opts ...Option) (*Accounts, error) {
	o := buildOptions(opts)
	dummy, err := o.hasher.Hash("letsplay-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("preparing password hasher: %w", err)
	}
	return &Accounts{
		users:     users,
		codec:     codec,
		hasher:    o.hasher,
		now:       o.now,
		dummyHash: dummy,
	}, nil
}

// SignIn verifies credentials and issues a bearer token. Unknown emails and
// wrong passwords produce the same 401.
func (a *Accounts) SignIn(ctx context.Context, req *api.LoginRequest) (*api.JwtResponse, error) {
	if err := api.ValidateLogin(req); err != nil {
		return nil, err
	}

	u, err := a.users.GetUserByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if u == nil {
		a.hasher.Verify(a.dummyHash, req.Password)
		debug.Log(debug.Auth, "sign-in for unknown email")
		return nil, api.NewUnauthorizedError(msgInvalidCredentials)
	}
	if !a.hasher.Verify(u.PasswordHash, req.Password) {
		debug.Log(debug.Auth, "sign-in with wrong password", "subject", u.ID)
		return nil, api.NewUnauthorizedError(msgInvalidCredentials)
	}

	token, err := a.codec.Issue(u.ID, a.now())
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	slog.Info("user signed in", "subject", u.ID)
	return &api.JwtResponse{
		Token: token,
		Type:  "Bearer",
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}, nil
}

// SignUp registers a new account. The role is always USER regardless of
// what the request asks for.
func (a *Accounts) SignUp(ctx context.Context, req *api.UserCreateRequest) (*api.UserResponse, error) {
	r := *req
	r.Role = api.RoleUser
	u, err := createUser(ctx, a.users, a.hasher, &r, a.now())
	if err != nil {
		return nil, err
	}
	slog.Info("user registered", "subject", u.ID)
	resp := u.ToResponse()
	return &resp, nil
}

// createUser validates req, enforces email uniqueness, and stores the user.
func createUser(ctx context.Context, users storage.UserStore, hasher *Hasher, req *api.UserCreateRequest, now time.Time) (*api.User, error) {
	if err := api.ValidateUserCreate(req); err != nil {
		return nil, err
	}

	email := api.NormalizeEmail(req.Email)
	if _, err := users.GetUserByEmail(ctx, email); err == nil {
		return nil, errEmailInUse()
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("looking up email: %w", err)
	}

	hash, err := hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = api.RoleUser
	}

	u := &api.User{
		ID:           api.NewID(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
	if err := users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, errEmailInUse()
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return u, nil
}
