package orders

import "errors"

var (
	// validation
	ErrEmptyOrder  = errors.New("order has no items")
	ErrBadQuantity = errors.New("item quantity must be at least 1")
	ErrBadStatus   = errors.New("unknown or illegal order status")

	// dangling references in the request body
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")

	// id does not resolve
	ErrOrderNotFound = errors.New("order not found")
)
