package models

type OrderStatus string

const (
	OrderPending             OrderStatus = "pending"
	OrderWaitingVerification OrderStatus = "paid_waiting_verification"
	OrderApproved            OrderStatus = "approved"
	OrderRejected            OrderStatus = "rejected"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentRejected PaymentStatus = "rejected"
)

// orderTransitions is the allowed status progression. Terminal states have no
// outgoing edges.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:             {OrderWaitingVerification},
	OrderWaitingVerification: {OrderApproved, OrderRejected},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderWaitingVerification, OrderApproved, OrderRejected:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderApproved || s == OrderRejected
}

// CanTransition reports whether from -> to is a forward edge of the order
// lifecycle. Self-loops, backward edges and unknown statuses all return false.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
