package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mond-tech/solfrance-backend/internal/domain"
	"github.com/mond-tech/solfrance-backend/internal/mailer"
	"github.com/mond-tech/solfrance-backend/internal/pkg/ctxlog"
)

const orderConfirmSubject = "Your order is confirmed"

// ProductResolver resolves product ids to catalog entries.
type ProductResolver interface {
	ResolveProducts(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

// UserResolver resolves a user id to the account record.
type UserResolver interface {
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// EmailQueue is the fire-and-forget enqueue side of the mail pipeline.
type EmailQueue interface {
	Enqueue(msg mailer.Message)
}

// Service implements cart use cases.
type Service struct {
	repo     Repository
	products ProductResolver
	users    UserResolver
	queue    EmailQueue
	renderer *mailer.Renderer
}

// NewService creates a cart service.
func NewService(repo Repository, products ProductResolver, users UserResolver, queue EmailQueue, renderer *mailer.Renderer) *Service {
	return &Service{
		repo:     repo,
		products: products,
		users:    users,
		queue:    queue,
		renderer: renderer,
	}
}

// CartView is a cart together with its total at current prices.
type CartView struct {
	Cart  *domain.Cart `json:"cart"`
	Total float64      `json:"total"`
}

// GetCart returns the user's cart with its total, or a nil cart when
// none exists (an empty cart is a valid state, not an error).
func (s *Service) GetCart(ctx context.Context, userID string) (*CartView, error) {
	c, err := s.repo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return &CartView{}, nil
		}
		return nil, err
	}

	prices, err := s.cartPrices(ctx, c)
	if err != nil {
		return nil, err
	}
	return &CartView{Cart: c, Total: c.Total(prices)}, nil
}

// UpsertCart validates the requested products and reconciles the stored
// cart. An empty request clears the cart.
func (s *Service) UpsertCart(ctx context.Context, userID string, items []ItemInput) (*CartView, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	known, err := s.products.ResolveProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return nil, ErrUnknownProduct
		}
	}

	c, err := s.repo.UpsertCart(ctx, userID, items)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return &CartView{}, nil
	}

	prices, err := s.cartPrices(ctx, c)
	if err != nil {
		return nil, err
	}
	return &CartView{Cart: c, Total: c.Total(prices)}, nil
}

// RemoveItem deletes one cart line.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) error {
	return s.repo.RemoveItem(ctx, userID, itemID)
}

// Checkout snapshots the cart into an order at current catalog prices,
// clears the cart, and queues an order confirmation email. The order
// write and the cart delete share one transaction and the mail is
// enqueued before the commit, same coupling as the registration mail.
func (s *Service) Checkout(ctx context.Context, userID string) (*domain.Order, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	c, err := s.repo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return nil, ErrCartEmpty
		}
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, ErrCartEmpty
	}

	prices, err := s.cartPrices(ctx, c)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:     uuid.NewString(),
		UserID: userID,
		Status: domain.OrderStatusConfirmed,
		Total:  c.Total(prices),
	}
	for _, item := range c.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Count:     item.Count,
			Price:     prices[item.ProductID],
		})
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if err := tx.ClearCart(ctx, userID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	s.queueOrderEmail(ctx, user, order)

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	ctxlog.FromContext(ctx).Info("order created",
		"order_id", order.ID,
		"user_id", userID,
		"total", order.Total,
	)
	return order, nil
}

func (s *Service) cartPrices(ctx context.Context, c *domain.Cart) (map[string]float64, error) {
	ids := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.products.ResolveProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}

	prices := make(map[string]float64, len(products))
	for id, p := range products {
		prices[id] = p.Price
	}
	return prices, nil
}

func (s *Service) queueOrderEmail(ctx context.Context, user *domain.User, order *domain.Order) {
	data := mailer.OrderConfirmationData{
		Name:    user.Name,
		OrderID: order.ID,
		Total:   fmt.Sprintf("%.2f", order.Total),
	}

	ids := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.ResolveProducts(ctx, ids)
	if err != nil {
		// The order is committed; a nameless line item beats losing the mail.
		ctxlog.FromContext(ctx).Warn("resolve products for order email", "error", err)
		products = map[string]domain.Product{}
	}

	for _, item := range order.Items {
		name := item.ProductID
		if p, ok := products[item.ProductID]; ok {
			name = p.Name
		}
		data.Items = append(data.Items, mailer.OrderConfirmationItem{
			ProductName: name,
			Count:       item.Count,
			Price:       fmt.Sprintf("%.2f", item.Price),
		})
	}

	body, err := s.renderer.Render("order_confirmation", data)
	if err != nil {
		ctxlog.FromContext(ctx).Error("render order email", "error", err)
		return
	}

	s.queue.Enqueue(mailer.Message{
		To:      user.Email,
		Subject: orderConfirmSubject,
		Body:    body,
	})
}
