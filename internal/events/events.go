package events

import "time"

const (
	OrderCreatedQueue    = "order.created"
	PaymentCapturedQueue = "payment.captured"
	PaymentRefundedQueue = "payment.refunded"
)

type OrderItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type OrderCreated struct {
	EventType   string      `json:"eventType"`
	OrderID     string      `json:"orderId"`
	UserID      string      `json:"userId"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"totalAmount"`
	Timestamp   time.Time   `json:"timestamp"`
}

type PaymentCaptured struct {
	EventType     string    `json:"eventType"`
	OrderID       string    `json:"orderId"`
	UserID        string    `json:"userId"`
	TransactionID string    `json:"transactionId"`
	Amount        float64   `json:"amount"`
	Timestamp     time.Time `json:"timestamp"`
}

type PaymentRefunded struct {
	EventType     string    `json:"eventType"`
	OrderID       string    `json:"orderId"`
	TransactionID string    `json:"transactionId"`
	RefundOf      string    `json:"refundOf"`
	Amount        float64   `json:"amount"`
	Timestamp     time.Time `json:"timestamp"`
}
