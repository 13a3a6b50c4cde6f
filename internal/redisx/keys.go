package redisx

import "time"

const (
	// Expanded order document served on GET /orders/{id}: order:{order_id} -> JSON.
	// Dropped whenever the order's status changes or the order is deleted.
	KeyOrderDetail = "order:%s"

	// Dedup for event processing: dedup:{service}:{event_id}.
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLOrderDetail = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
