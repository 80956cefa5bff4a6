package catalog

import (
	"context"
	"fmt"

	"github.com/mond-tech/solfrance-backend/internal/domain"
)

// Service implements catalog use cases.
type Service struct {
	repo Repository
}

// NewService creates a catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListProducts returns all products.
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// GetProduct returns one product by id.
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetProductByID(ctx, id)
}

// ResolveProducts returns the products for the given ids, keyed by id.
// Ids that do not exist are absent from the result; callers decide
// whether that is an error.
func (s *Service) ResolveProducts(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	if len(ids) == 0 {
		return map[string]domain.Product{}, nil
	}
	return s.repo.GetProductsByIDs(ctx, ids)
}
