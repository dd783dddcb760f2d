package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saraelshenawy632/project-grad/internal/apperr"
	"github.com/saraelshenawy632/project-grad/internal/db"
	"github.com/saraelshenawy632/project-grad/internal/order"
)

type EventPublisher interface {
	PublishPaymentCaptured(ctx context.Context, p *Payment) error
	PublishPaymentRefunded(ctx context.Context, p *Payment) error
}

// Processor drives the order's payment sub-state from gateway outcomes.
// The gateway call happens outside the transaction; the order update and the
// payment record land inside one.
type Processor struct {
	pool      db.Pool
	orders    order.Repository
	payments  Repository
	gateway   *Gateway
	publisher EventPublisher
	logger    *log.Logger
}

func NewProcessor(pool db.Pool, orders order.Repository, payments Repository,
	gateway *Gateway, publisher EventPublisher, logger *log.Logger) *Processor {
	return &Processor{
		pool:      pool,
		orders:    orders,
		payments:  payments,
		gateway:   gateway,
		publisher: publisher,
		logger:    logger,
	}
}

// Process authorizes the card against the gateway and records the outcome.
// Success moves paymentInfo to completed and the order to processing; a
// decline records a failed attempt and leaves the order at pending.
func (p *Processor) Process(ctx context.Context, orderID string, details CardDetails) (*Payment, error) {
	o, err := p.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "order %s not found", orderID)
		}
		return nil, err
	}
	if o.Payment.Status == order.PaymentCompleted || o.Payment.Status == order.PaymentRefunded {
		return nil, fmt.Errorf("order %s payment is %s: %w", orderID, o.Payment.Status, order.ErrStateConflict)
	}
	if details.Amount != o.TotalAmount {
		return nil, apperr.New(apperr.KindInvalidAmount,
			"payment amount %.2f does not match order total %.2f", details.Amount, o.TotalAmount)
	}

	res, authErr := p.gateway.Authorize(ctx, o.ID, details)
	if authErr != nil && apperr.KindOf(authErr) != apperr.KindPaymentDeclined {
		// Validation failures never reach the provider and leave no record.
		return nil, authErr
	}

	rec := &Payment{
		ID:        uuid.NewString(),
		OrderID:   o.ID,
		UserID:    o.UserID,
		Amount:    details.Amount,
		Currency:  "USD",
		Method:    o.Payment.Method,
		CreatedAt: time.Now().UTC(),
	}
	if authErr != nil {
		rec.TransactionID = fmt.Sprintf("FAIL-%s", uuid.NewString())
		rec.Status = StatusFailed
		rec.ErrorMessage = authErr.Error()
	} else {
		rec.TransactionID = res.TransactionID
		rec.Status = StatusCompleted
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if authErr != nil {
		if err := p.orders.MarkPaymentFailedTx(ctx, tx, o.ID); err != nil {
			return nil, err
		}
	} else {
		if err := p.orders.MarkPaymentCompletedTx(ctx, tx, o.ID, rec.TransactionID); err != nil {
			return nil, err
		}
	}
	if err := p.payments.CreateTx(ctx, tx, rec); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if authErr != nil {
		return rec, authErr
	}

	if p.publisher != nil {
		if err := p.publisher.PublishPaymentCaptured(ctx, rec); err != nil {
			p.logger.Printf("publish PaymentCaptured for %s: %v", rec.TransactionID, err)
		}
	}

	return rec, nil
}

// Verify looks up a prior payment outcome by transaction id.
func (p *Processor) Verify(ctx context.Context, transactionID string) (*Payment, error) {
	rec, err := p.payments.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "transaction %s not found", transactionID)
		}
		return nil, err
	}
	return rec, nil
}

// Refund refunds part or all of a prior charge. The requested amount is
// validated against the original charge minus refunds already granted; a
// fully refunded charge flips the original record and the order to refunded.
func (p *Processor) Refund(ctx context.Context, transactionID string, amount float64) (*Payment, error) {
	if transactionID == "" {
		return nil, apperr.New(apperr.KindInvalidIdentifier, "transaction id is required")
	}

	// Pre-check outside the transaction so obviously bad requests never hit
	// the provider.
	original, err := p.payments.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "transaction %s not found", transactionID)
		}
		return nil, err
	}
	if original.RefundOf != "" || original.Status == StatusFailed {
		return nil, apperr.New(apperr.KindInvalidIdentifier, "transaction %s is not refundable", transactionID)
	}
	if amount <= 0 || amount > original.Amount {
		return nil, apperr.New(apperr.KindInvalidAmount,
			"refund amount must be between 0 and %.2f", original.Amount)
	}

	res, err := p.gateway.Refund(ctx, transactionID, amount)
	if err != nil {
		return nil, err
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Re-read under lock: a concurrent refund may have eaten into the
	// remaining amount since the pre-check.
	original, err = p.payments.GetByTransactionIDForUpdate(ctx, tx, transactionID)
	if err != nil {
		return nil, err
	}
	refunded, err := p.payments.SumRefundsTx(ctx, tx, transactionID)
	if err != nil {
		return nil, err
	}
	remaining := original.Amount - refunded
	if amount > remaining {
		return nil, apperr.New(apperr.KindInvalidAmount,
			"refund amount %.2f exceeds remaining refundable %.2f", amount, remaining)
	}

	rec := &Payment{
		ID:            uuid.NewString(),
		OrderID:       original.OrderID,
		UserID:        original.UserID,
		Amount:        amount,
		Currency:      original.Currency,
		Method:        original.Method,
		TransactionID: res.RefundID,
		Status:        StatusRefunded,
		RefundOf:      original.TransactionID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := p.payments.CreateTx(ctx, tx, rec); err != nil {
		return nil, err
	}

	if refunded+amount >= original.Amount {
		if err := p.payments.MarkRefundedTx(ctx, tx, original.ID); err != nil {
			return nil, err
		}
		if err := p.orders.MarkPaymentRefundedTx(ctx, tx, original.OrderID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if p.publisher != nil {
		if err := p.publisher.PublishPaymentRefunded(ctx, rec); err != nil {
			p.logger.Printf("publish PaymentRefunded for %s: %v", rec.TransactionID, err)
		}
	}

	return rec, nil
}
