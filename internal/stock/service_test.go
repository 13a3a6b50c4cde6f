package stock

import (
	"context"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"

	kafkax "github.com/davidortiz/eshop-backend/internal/kafka"
	"github.com/davidortiz/eshop-backend/internal/orders"
)

func TestHandleOrderPlaced_IgnoresOtherEvents(t *testing.T) {
	svc := &Service{ServiceName: "test-stock"}

	env := orders.Envelope{
		EventID:   "ev-1",
		EventType: orders.EventOrderStatusChanged,
		Payload:   kafkax.MustMarshal(orders.OrderStatusChangedPayload{OrderID: "o-1"}),
	}
	err := svc.HandleOrderPlaced(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(env)})
	assert.NoError(t, err, "foreign event types are skipped before any dependency is touched")
}

func TestHandleOrderPlaced_BadEnvelope(t *testing.T) {
	svc := &Service{ServiceName: "test-stock"}

	err := svc.HandleOrderPlaced(context.Background(), kafkago.Message{Value: []byte("{not json")})
	assert.Error(t, err, "undecodable messages must not be committed")
}
