package cart

import "time"

type Item struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	// Price is the line snapshot (unit price x quantity) captured when the
	// item was added or last updated, not recomputed from the live product.
	Price float64 `json:"price"`
}

type Cart struct {
	ID        string    `json:"cartId"`
	UserID    string    `json:"userId"`
	Items     []Item    `json:"items"`
	Total     float64   `json:"totalAmount"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RecalculateTotal sums the item snapshots. The total is never trusted from
// client input.
func (c *Cart) RecalculateTotal() {
	total := 0.0
	for _, it := range c.Items {
		total += it.Price
	}
	c.Total = total
}
