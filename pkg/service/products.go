package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rhuss/letsplay/pkg/api"
	"github.com/rhuss/letsplay/pkg/auth"
	"github.com/rhuss/letsplay/pkg/storage"
)

// Products handles the product catalogue.
type Products struct {
	store storage.ProductStore
	now   func() time.Time
}

// NewProducts creates the product service.
func NewProducts(store storage.ProductStore, opts ...Option) *Products {
	o := buildOptions(opts)
	return &Products{store: store, now: o.now}
}

// List returns all products.
func (s *Products) List(ctx context.Context) ([]*api.Product, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}

// Get returns one product.
func (s *Products) Get(ctx context.Context, id string) (*api.Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "Product", id)
	}
	return p, nil
}

// ListByUser returns the products owned by userID.
func (s *Products) ListByUser(ctx context.Context, userID string) ([]*api.Product, error) {
	products, err := s.store.ListProductsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}

// Create adds a product owned by the caller.
func (s *Products) Create(ctx context.Context, caller *auth.Identity, req *api.ProductRequest) (*api.Product, error) {
	if caller == nil {
		return nil, errUnauthenticated()
	}
	if err := api.ValidateProduct(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &api.Product{
		ID:          api.NewID(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		UserID:      caller.Subject,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}
	slog.Debug("product created", "id", p.ID, "owner", p.UserID)
	return p, nil
}

// Update applies the fields present in req. The owner or an administrator
// may update; the owner never changes.
func (s *Products) Update(ctx context.Context, caller *auth.Identity, id string, req *api.ProductUpdateRequest) (*api.Product, error) {
	if caller == nil {
		return nil, errUnauthenticated()
	}
	if err := api.ValidateProductUpdate(req); err != nil {
		return nil, err
	}

	p, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, notFound(err, "Product", id)
	}
	return p, nil
}

// Delete removes a product. The owner or an administrator may delete.
func (s *Products) Delete(ctx context.Context, caller *auth.Identity, id string) error {
	if caller == nil {
		return errUnauthenticated()
	}
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return notFound(err, "Product", id)
	}
	slog.Debug("product deleted", "id", id, "by", caller.Subject)
	return nil
}

// owned loads product id and checks that caller may modify it.
func (s *Products) owned(ctx context.Context, caller *auth.Identity, id string) (*api.Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "Product", id)
	}
	if !auth.CanModify(caller, p.UserID) {
		return nil, errForbidden(msgAccessDenied)
	}
	return p, nil
}
