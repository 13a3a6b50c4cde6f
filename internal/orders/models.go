package orders

import (
	"fmt"
	"time"
)

type Order struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user"`
	UserName   string    `json:"userName,omitempty"`
	Status     Status    `json:"status"`
	TotalCents int64     `json:"total_cents"`
	Shipping   Shipping  `json:"shipping"`
	OrderedAt  time.Time `json:"dateOrdered"`
}

type Shipping struct {
	Address1 string `json:"shippingAddress1"`
	Address2 string `json:"shippingAddress2,omitempty"`
	City     string `json:"city"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
	Phone    string `json:"phone"`
}

type Item struct {
	ID         string `json:"id"`
	ProductID  string `json:"product"`
	Qty        int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

// ExpandedItem carries the product and category names alongside the line.
type ExpandedItem struct {
	Item
	ProductName  string `json:"productName"`
	CategoryName string `json:"categoryName,omitempty"`
}

// Detail is an order with its line items fully expanded.
type Detail struct {
	Order
	Items []ExpandedItem `json:"orderItems"`
}

// LineInput is one requested (product, quantity) pair.
type LineInput struct {
	ProductID string `json:"product"`
	Qty       int    `json:"quantity"`
}

type PlaceRequest struct {
	UserID   string
	Status   Status // empty means DefaultStatus
	Shipping Shipping
	Items    []LineInput
}

// Validate checks request shape only; reference checks need the store.
func (req PlaceRequest) Validate() error {
	if len(req.Items) == 0 {
		return ErrEmptyOrder
	}
	for _, it := range req.Items {
		if it.Qty < 1 {
			return fmt.Errorf("%w: product %s", ErrBadQuantity, it.ProductID)
		}
	}
	if req.Status != "" && !Known(req.Status) {
		return fmt.Errorf("%w: %q", ErrBadStatus, req.Status)
	}
	return nil
}

// TotalCents sums quantity times unit price over priced lines, starting at zero.
func TotalCents(items []LineInput, prices []int64) int64 {
	var total int64
	for i, it := range items {
		total += int64(it.Qty) * prices[i]
	}
	return total
}
