// Package stock keeps product stock counts in step with placed orders.
// Placement itself never touches stock, so two simultaneous orders can both
// succeed; this worker settles the difference afterwards and reports any
// shortage it finds.
package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/davidortiz/eshop-backend/internal/kafka"
	"github.com/davidortiz/eshop-backend/internal/orders"
	"github.com/davidortiz/eshop-backend/internal/redisx"
)

type Service struct {
	Stock       *orders.StockRepo
	Orders      *orders.Repo
	Redis       *redis.Client
	Producer    *kafkax.Producer // publishes stock rejections
	ServiceName string
}

// HandleOrderPlaced is the consumer handler for order.placed.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil
	}

	// dedup by event id so redelivery cannot decrement twice
	dkey := fmt.Sprintf(redisx.KeyDedup, "stock", env.EventID)
	if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}
	items := make([]orders.ItemQty, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, orders.ItemQty{ProductID: it.ProductID, Qty: it.Qty})
	}

	ok, shortages, err := s.Stock.DecrementAll(ctx, p.OrderID, items)
	if err != nil {
		return err
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	if ok {
		return nil
	}

	for _, sh := range shortages {
		log.Printf("order %s: product %s short (need %d, have %d)", p.OrderID, sh.ProductID, sh.Required, sh.Available)
	}
	if _, err := s.Orders.UpdateStatus(ctx, p.OrderID, orders.StatusFailed); err != nil {
		// the order may have moved on already; the rejection event still goes out
		log.Printf("order %s: mark failed: %v", p.OrderID, err)
	}
	s.publishRejected(p.OrderID, shortages, env.TraceID)
	return nil
}

func (s *Service) publishRejected(orderID string, shortages []orders.StockShortage, trace string) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventStockRejected,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: orderID,
		Payload: kafkax.MustMarshal(orders.StockRejectedPayload{
			OrderID: orderID, Reason: "OUT_OF_STOCK", Shortages: shortages,
		}),
	}
	s.Producer.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventStockRejected)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
