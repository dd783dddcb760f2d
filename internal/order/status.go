package order

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// CanTransitionTo encodes the fulfillment lifecycle:
// pending -> processing -> shipped -> delivered, with cancellation allowed
// from pending and processing only.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusCancelled
	case StatusProcessing:
		return next == StatusShipped || next == StatusCancelled
	case StatusShipped:
		return next == StatusDelivered
	default:
		return false
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// CanTransitionTo encodes the payment sub-lifecycle, independent of the
// order status: pending -> completed | failed, completed -> refunded.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentPending:
		return next == PaymentCompleted || next == PaymentFailed
	case PaymentCompleted:
		return next == PaymentRefunded
	default:
		return false
	}
}
