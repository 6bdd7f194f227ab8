package storage

import (
	"context"

	"github.com/rhuss/letsplay/pkg/api"
)

// UserStore persists user accounts. Emails are unique, compared after
// api.NormalizeEmail.
type UserStore interface {
	CreateUser(ctx context.Context, u *api.User) error
	GetUser(ctx context.Context, id string) (*api.User, error)
	GetUserByEmail(ctx context.Context, email string) (*api.User, error)
	ListUsers(ctx context.Context) ([]*api.User, error)
	UpdateUser(ctx context.Context, u *api.User) error

	// DeleteUser removes a user and every product it owns as one atomic
	// step and returns how many products were removed. A missing user
	// yields ErrNotFound and removes nothing.
	DeleteUser(ctx context.Context, id string) (int, error)
}

// ProductStore persists products.
type ProductStore interface {
	CreateProduct(ctx context.Context, p *api.Product) error
	GetProduct(ctx context.Context, id string) (*api.Product, error)
	ListProducts(ctx context.Context) ([]*api.Product, error)
	ListProductsByUser(ctx context.Context, userID string) ([]*api.Product, error)
	UpdateProduct(ctx context.Context, p *api.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// Store is the full persistence backend used by the server.
type Store interface {
	UserStore
	ProductStore

	// HealthCheck reports whether the backend is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the backend.
	Close() error
}
