package payment

import "time"

type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Payment is the durable record of one provider interaction. Refunds are
// separate records pointing back at the original via RefundOf.
type Payment struct {
	ID            string    `json:"paymentId"`
	OrderID       string    `json:"orderId"`
	UserID        string    `json:"userId"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Method        string    `json:"method"`
	TransactionID string    `json:"transactionId"`
	Status        Status    `json:"status"`
	ErrorMessage  string    `json:"errorMessage,omitempty"`
	RefundOf      string    `json:"refundOf,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
