package domain

import "time"

// Cart is a user's shopping cart: one header row plus its items.
// A cart with no items does not exist as a row; deleting the last item
// deletes the header.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is one product line in a cart.
type CartItem struct {
	ID        string `json:"id"`
	CartID    string `json:"cart_id"`
	ProductID string `json:"product_id"`
	Count     int    `json:"count"`
}

// Total computes the cart total against current catalog prices.
func (c *Cart) Total(prices map[string]float64) float64 {
	var total float64
	for _, item := range c.Items {
		total += prices[item.ProductID] * float64(item.Count)
	}
	return total
}
