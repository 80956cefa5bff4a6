// Package catalog provides read access to the product catalog.
package catalog

import (
	"context"
	"errors"

	"github.com/mond-tech/solfrance-backend/internal/domain"
)

// ErrProductNotFound is returned when a product id does not exist.
var ErrProductNotFound = errors.New("product not found")

// Repository defines catalog data access.
type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}
