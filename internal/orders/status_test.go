package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKnown(t *testing.T) {
	for _, s := range []Status{StatusPlaced, StatusShipped, StatusDelivered, StatusCancelled, StatusFailed} {
		assert.True(t, Known(s), "%s", s)
	}
	assert.False(t, Known(Status("pending")))
	assert.False(t, Known(Status("")))
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPlaced, StatusShipped},
		{StatusPlaced, StatusCancelled},
		{StatusPlaced, StatusFailed},
		{StatusShipped, StatusDelivered},
		{StatusShipped, StatusCancelled},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr.from, tr.to), "%s -> %s", tr.from, tr.to)
	}

	denied := []struct{ from, to Status }{
		{StatusPlaced, StatusDelivered}, // must ship first
		{StatusShipped, StatusPlaced},
		{StatusDelivered, StatusShipped},
		{StatusDelivered, StatusCancelled},
		{StatusCancelled, StatusPlaced},
		{StatusFailed, StatusPlaced},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr.from, tr.to), "%s -> %s", tr.from, tr.to)
	}
}
