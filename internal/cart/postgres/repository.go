// Package postgres implements the cart repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mond-tech/solfrance-backend/internal/cart"
	"github.com/mond-tech/solfrance-backend/internal/domain"
)

// querier is the subset of pgxpool.Pool and pgx.Tx the repository uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements cart.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a repository bound to the pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetCartByUserID returns the user's cart with its items.
func (r *Repository) GetCartByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	return getCart(ctx, r.pool, userID)
}

func getCart(ctx context.Context, db querier, userID string) (*domain.Cart, error) {
	var c domain.Cart
	err := db.QueryRow(ctx, `
		SELECT id, user_id, created_at, updated_at
		FROM cart_headers WHERE user_id = $1`,
		userID,
	).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrCartNotFound
		}
		return nil, fmt.Errorf("get cart header: %w", err)
	}

	rows, err := db.Query(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.count
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY p.name`,
		c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Count); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		c.Items = append(c.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}

	return &c, nil
}

// UpsertCart reconciles the stored cart with the requested items inside
// one transaction. Lines absent from items are removed, existing lines
// get the new count, unknown lines are inserted. An empty items slice
// deletes the cart.
func (r *Repository) UpsertCart(ctx context.Context, userID string, items []cart.ItemInput) (*domain.Cart, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if len(items) == 0 {
		// Deleting the header cascades to the items.
		if _, err := tx.Exec(ctx,
			`DELETE FROM cart_headers WHERE user_id = $1`, userID); err != nil {
			return nil, fmt.Errorf("delete cart: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit transaction: %w", err)
		}
		return nil, nil
	}

	var cartID string
	err = tx.QueryRow(ctx, `
		INSERT INTO cart_headers (id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
		RETURNING id`,
		uuid.NewString(), userID,
	).Scan(&cartID)
	if err != nil {
		return nil, fmt.Errorf("upsert cart header: %w", err)
	}

	keep := make([]string, 0, len(items))
	for _, item := range items {
		keep = append(keep, item.ProductID)
	}
	if _, err := tx.Exec(ctx, `
		DELETE FROM cart_items
		WHERE cart_id = $1 AND product_id != ALL($2)`,
		cartID, keep,
	); err != nil {
		return nil, fmt.Errorf("remove stale cart items: %w", err)
	}

	for _, item := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO cart_items (id, cart_id, product_id, count)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (cart_id, product_id) DO UPDATE SET count = EXCLUDED.count`,
			uuid.NewString(), cartID, item.ProductID, item.Count,
		); err != nil {
			return nil, fmt.Errorf("upsert cart item: %w", err)
		}
	}

	result, err := getCart(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return result, nil
}

// RemoveItem deletes one cart line. Removing the last line removes the
// header too.
func (r *Repository) RemoveItem(ctx context.Context, userID, itemID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		DELETE FROM cart_items ci
		USING cart_headers ch
		WHERE ci.id = $1 AND ci.cart_id = ch.id AND ch.user_id = $2`,
		itemID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM cart_headers ch
		WHERE ch.user_id = $1
		  AND NOT EXISTS (SELECT 1 FROM cart_items ci WHERE ci.cart_id = ch.id)`,
		userID,
	); err != nil {
		return fmt.Errorf("delete empty cart header: %w", err)
	}

	return tx.Commit(ctx)
}

// Begin starts the checkout transaction.
func (r *Repository) Begin(ctx context.Context) (cart.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &txRepository{tx: tx}, nil
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *txRepository) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// CreateOrder persists the order with its items.
func (t *txRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO order_headers (id, user_id, status, total)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		order.ID, order.UserID, order.Status, order.Total,
	).Scan(&order.CreatedAt)
	if err != nil {
		return fmt.Errorf("create order header: %w", err)
	}

	for _, item := range order.Items {
		if _, err := t.tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, count, price)
			VALUES ($1, $2, $3, $4, $5)`,
			item.ID, item.OrderID, item.ProductID, item.Count, item.Price,
		); err != nil {
			return fmt.Errorf("create order item: %w", err)
		}
	}
	return nil
}

// ClearCart deletes the user's cart.
func (t *txRepository) ClearCart(ctx context.Context, userID string) error {
	if _, err := t.tx.Exec(ctx,
		`DELETE FROM cart_headers WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
