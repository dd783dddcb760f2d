package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/saraelshenawy632/project-grad/internal/order"
	"github.com/saraelshenawy632/project-grad/internal/payment"
)

type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare queues so publish never fails due to missing infra
	for _, q := range []string{OrderCreatedQueue, PaymentCapturedQueue, PaymentRefundedQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare %s: %w", q, err)
		}
	}

	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, o *order.Order) error {
	ev := OrderCreated{
		EventType:   "OrderCreated",
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		Timestamp:   time.Now().UTC(),
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderCreated: %w", err)
	}
	return p.publishJSON(ctx, OrderCreatedQueue, body)
}

func (p *Publisher) PublishPaymentCaptured(ctx context.Context, rec *payment.Payment) error {
	ev := PaymentCaptured{
		EventType:     "PaymentCaptured",
		OrderID:       rec.OrderID,
		UserID:        rec.UserID,
		TransactionID: rec.TransactionID,
		Amount:        rec.Amount,
		Timestamp:     time.Now().UTC(),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal PaymentCaptured: %w", err)
	}
	return p.publishJSON(ctx, PaymentCapturedQueue, body)
}

func (p *Publisher) PublishPaymentRefunded(ctx context.Context, rec *payment.Payment) error {
	ev := PaymentRefunded{
		EventType:     "PaymentRefunded",
		OrderID:       rec.OrderID,
		TransactionID: rec.TransactionID,
		RefundOf:      rec.RefundOf,
		Amount:        rec.Amount,
		Timestamp:     time.Now().UTC(),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal PaymentRefunded: %w", err)
	}
	return p.publishJSON(ctx, PaymentRefundedQueue, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		"",         // default exchange
		routingKey, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
