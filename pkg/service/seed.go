package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rhuss/letsplay/pkg/api"
	"github.com/rhuss/letsplay/pkg/storage"
)

// SeedAccount is an account created at startup when absent.
type SeedAccount struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// DefaultSeedAccounts are the demo accounts of a fresh installation.
var DefaultSeedAccounts = []SeedAccount{
	{Name: "Admin", Email: "admin@example.com", Password: "admin123", Role: api.RoleAdmin},
	{Name: "User", Email: "user@example.com", Password: "user123", Role: api.RoleUser},
}

// Seed creates each account whose email is not registered yet. Existing
// accounts are left untouched. It returns the number of accounts created.
func Seed(ctx context.Context, users storage.UserStore, accounts []SeedAccount, opts ...Option) (int, error) {
	o := buildOptions(opts)
	created := 0
	for _, acc := range accounts {
		req := &api.UserCreateRequest{
			Name:     acc.Name,
			Email:    acc.Email,
			Password: acc.Password,
			Role:     acc.Role,
		}
		u, err := createUser(ctx, users, o.hasher, req, o.now())
		if err != nil {
			var apiErr *api.APIError
			if errors.As(err, &apiErr) && apiErr.Message == msgEmailInUse {
				continue
			}
			return created, fmt.Errorf("seeding %s: %w", acc.Email, err)
		}
		slog.Info("seeded account", "email", u.Email, "role", u.Role)
		created++
	}
	return created, nil
}
