package orders

type Status string

const (
	StatusPlaced    Status = "placed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

const DefaultStatus = StatusPlaced

var validNext = map[Status]map[Status]bool{
	StatusPlaced:    {StatusShipped: true, StatusCancelled: true, StatusFailed: true},
	StatusShipped:   {StatusDelivered: true, StatusCancelled: true},
	StatusDelivered: {},
	StatusCancelled: {},
	StatusFailed:    {},
}

func Known(s Status) bool {
	_, ok := validNext[s]
	return ok
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
