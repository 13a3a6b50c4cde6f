package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderDeleted       = "OrderDeleted"
	EventStockRejected      = "StockRejected"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type ItemQty struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type ItemPrice struct {
	ProductID  string `json:"product_id"`
	Qty        int    `json:"qty"`
	PriceCents int64  `json:"price_cents"`
}

type OrderPlacedPayload struct {
	OrderID    string      `json:"order_id"`
	UserID     string      `json:"user_id"`
	Items      []ItemPrice `json:"items"`
	TotalCents int64       `json:"total_cents"`
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	Old     Status `json:"old"`
	New     Status `json:"new"`
}

type OrderDeletedPayload struct {
	OrderID      string `json:"order_id"`
	ItemsDeleted int    `json:"items_deleted"`
}

type StockShortage struct {
	ProductID string `json:"product_id"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

type StockRejectedPayload struct {
	OrderID   string          `json:"order_id"`
	Reason    string          `json:"reason"` // e.g. OUT_OF_STOCK
	Shortages []StockShortage `json:"shortages,omitempty"`
}
