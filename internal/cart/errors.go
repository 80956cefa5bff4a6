package cart

import "errors"

// Service errors surfaced to handlers.
var (
	ErrCartNotFound   = errors.New("cart not found")
	ErrCartEmpty      = errors.New("cart is empty")
	ErrItemNotFound   = errors.New("cart item not found")
	ErrUnknownProduct = errors.New("unknown product in cart")
)
