package orders

const (
	// All order lifecycle events ride one topic; the envelope's event_type
	// tells consumers which one they are looking at.
	TopicOrderEvents   = "order.events"
	TopicStockRejected = "order.stock.rejected"
)

// Partition key = order id, so all events of one order stay ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
