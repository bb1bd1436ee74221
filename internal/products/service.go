package products

import (
	"context"
	"strings"
)

// Service handles product business logic.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns one page of products matching filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	filters.Search = strings.TrimSpace(filters.Search)
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, product Product) (Product, error) {
	return s.repo.Create(ctx, product)
}

// Update replaces every editable field of product id.
func (s *Service) Update(ctx context.Context, id string, product Product) (Product, error) {
	return s.repo.Update(ctx, id, product)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
