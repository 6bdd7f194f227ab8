// Package memory provides an in-memory implementation of storage.Store for
// tests and single-instance deployments. Data is lost when the process
// restarts.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/rhuss/letsplay/pkg/api"
	"github.com/rhuss/letsplay/pkg/storage"
)

// Store is an in-memory storage.Store. Records are copied on the way in and
// out so callers never share memory with the store.
type Store struct {
	mu       sync.RWMutex
	users    map[string]api.User
	emails   map[string]string // normalized email -> user ID
	products map[string]api.Product
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:    make(map[string]api.User),
		emails:   make(map[string]string),
		products: make(map[string]api.Product),
	}
}

// CreateUser stores a new user. Returns ErrConflict if the ID or the email
// is already taken.
func (s *Store) CreateUser(_ context.Context, u *api.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := api.NormalizeEmail(u.Email)
	if _, exists := s.users[u.ID]; exists {
		return storage.ErrConflict
	}
	if _, exists := s.emails[email]; exists {
		return storage.ErrConflict
	}

	s.users[u.ID] = *u
	s.emails[email] = u.ID
	return nil
}

// GetUser returns the user with the given ID.
func (s *Store) GetUser(_ context.Context, id string) (*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

// GetUserByEmail returns the user registered under email.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[api.NormalizeEmail(email)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

// ListUsers returns all users ordered by creation time.
func (s *Store) ListUsers(_ context.Context) ([]*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*api.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, &u)
	}
	slices.SortFunc(out, func(a, b *api.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// UpdateUser replaces a stored user. The email may change as long as the
// new address is not held by another user.
func (s *Store) UpdateUser(_ context.Context, u *api.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.users[u.ID]
	if !ok {
		return storage.ErrNotFound
	}

	oldEmail := api.NormalizeEmail(old.Email)
	newEmail := api.NormalizeEmail(u.Email)
	if newEmail != oldEmail {
		if _, taken := s.emails[newEmail]; taken {
			return storage.ErrConflict
		}
		delete(s.emails, oldEmail)
		s.emails[newEmail] = u.ID
	}

	s.users[u.ID] = *u
	return nil
}

// DeleteUser removes a user and its products under one lock.
func (s *Store) DeleteUser(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return 0, storage.ErrNotFound
	}
	n := 0
	for pid, p := range s.products {
		if p.UserID == id {
			delete(s.products, pid)
			n++
		}
	}
	delete(s.emails, api.NormalizeEmail(u.Email))
	delete(s.users, id)
	return n, nil
}

// CreateProduct stores a new product.
func (s *Store) CreateProduct(_ context.Context, p *api.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[p.ID]; exists {
		return storage.ErrConflict
	}
	s.products[p.ID] = *p
	return nil
}

// GetProduct returns the product with the given ID.
func (s *Store) GetProduct(_ context.Context, id string) (*api.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

// ListProducts returns all products ordered by creation time.
func (s *Store) ListProducts(_ context.Context) ([]*api.Product, error) {
	return s.listProducts(func(*api.Product) bool { return true }), nil
}

// ListProductsByUser returns the products owned by userID. An unknown user
// yields an empty list.
func (s *Store) ListProductsByUser(_ context.Context, userID string) ([]*api.Product, error) {
	return s.listProducts(func(p *api.Product) bool { return p.UserID == userID }), nil
}

func (s *Store) listProducts(keep func(*api.Product) bool) []*api.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*api.Product, 0)
	for _, p := range s.products {
		if keep(&p) {
			out = append(out, &p)
		}
	}
	slices.SortFunc(out, func(a, b *api.Product) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// UpdateProduct replaces a stored product.
func (s *Store) UpdateProduct(_ context.Context, p *api.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.ID]; !ok {
		return storage.ErrNotFound
	}
	s.products[p.ID] = *p
	return nil
}

// DeleteProduct removes a product.
func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
