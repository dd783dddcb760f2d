package order

import "time"

type Item struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	// Price is the captured line price (unit price x quantity) at the moment
	// the order was created. Later product price changes do not touch it.
	Price float64 `json:"price"`
}

type ShippingAddress struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zipCode"`
}

func (a ShippingAddress) Complete() bool {
	return a.Street != "" && a.City != "" && a.State != "" && a.Zip != ""
}

type PaymentInfo struct {
	Method        string        `json:"method"`
	TransactionID string        `json:"transactionId,omitempty"`
	Status        PaymentStatus `json:"status"`
}

type Order struct {
	ID              string          `json:"orderId"`
	UserID          string          `json:"userId"`
	Items           []Item          `json:"items"`
	TotalAmount     float64         `json:"totalAmount"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Status          Status          `json:"orderStatus"`
	Payment         PaymentInfo     `json:"paymentInfo"`
	CreatedAt       time.Time       `json:"createdAt"`
}
