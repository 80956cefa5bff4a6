// Package cart implements the shopping cart and checkout.
package cart

import (
	"context"

	"github.com/mond-tech/solfrance-backend/internal/domain"
)

// ItemInput is one product line in an upsert request.
type ItemInput struct {
	ProductID string
	Count     int
}

// Repository defines cart data access.
type Repository interface {
	// GetCartByUserID returns the user's cart or ErrCartNotFound.
	GetCartByUserID(ctx context.Context, userID string) (*domain.Cart, error)

	// UpsertCart reconciles the stored cart with the requested items:
	// lines missing from items are removed, existing lines get the new
	// count, new lines are added. An empty items slice deletes the cart
	// and returns nil.
	UpsertCart(ctx context.Context, userID string, items []ItemInput) (*domain.Cart, error)

	// RemoveItem deletes one cart line; removing the last line removes
	// the cart header as well.
	RemoveItem(ctx context.Context, userID, itemID string) error

	// Begin starts the checkout transaction.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is the checkout write set bound to one database transaction, so
// the order insert, the cart delete and the confirmation mail enqueue
// commit or roll back together.
type Tx interface {
	// CreateOrder persists the order with its items.
	CreateOrder(ctx context.Context, order *domain.Order) error

	// ClearCart deletes the user's cart.
	ClearCart(ctx context.Context, userID string) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
