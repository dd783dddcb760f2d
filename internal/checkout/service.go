// Package checkout converts a cart into an order atomically: per-line stock
// verification and decrement, order creation and cart clearing all commit or
// roll back as one database transaction.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saraelshenawy632/project-grad/internal/apperr"
	"github.com/saraelshenawy632/project-grad/internal/cart"
	"github.com/saraelshenawy632/project-grad/internal/catalog"
	"github.com/saraelshenawy632/project-grad/internal/db"
	"github.com/saraelshenawy632/project-grad/internal/order"
)

type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *order.Order) error
}

var paymentMethods = map[string]bool{
	"credit_card": true,
	"debit_card":  true,
	"paypal":      true,
}

type Service struct {
	pool      db.Pool
	carts     cart.Repository
	products  catalog.Repository
	orders    order.Repository
	publisher EventPublisher
	logger    *log.Logger
}

func NewService(pool db.Pool, carts cart.Repository, products catalog.Repository,
	orders order.Repository, publisher EventPublisher, logger *log.Logger) *Service {
	return &Service{
		pool:      pool,
		carts:     carts,
		products:  products,
		orders:    orders,
		publisher: publisher,
		logger:    logger,
	}
}

// Checkout validates the cart, decrements stock line by line under row locks,
// creates the order with prices captured at this moment, and empties the
// cart. Any failure rolls the whole transaction back; the retry decision
// belongs to the caller.
func (s *Service) Checkout(ctx context.Context, userID, cartID string, addr order.ShippingAddress, paymentMethod string) (*order.Order, error) {
	if _, err := uuid.Parse(cartID); err != nil {
		return nil, apperr.New(apperr.KindInvalidIdentifier, "invalid cart ID format")
	}
	if !addr.Complete() {
		return nil, apperr.New(apperr.KindInvalidShippingAddress, "shipping address requires street, city, state and zip code")
	}
	if !paymentMethods[paymentMethod] {
		return nil, apperr.New(apperr.KindInvalidPaymentDetails, "unsupported payment method %q", paymentMethod)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := s.checkoutTx(ctx, tx, userID, cartID, addr, paymentMethod)
	if err != nil {
		return nil, translateConflict(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, translateConflict(fmt.Errorf("commit: %w", err))
	}

	if s.publisher != nil {
		// Best effort: the order is already durable, a broker outage must
		// not fail the request.
		if err := s.publisher.PublishOrderCreated(ctx, o); err != nil {
			s.logger.Printf("publish OrderCreated for %s: %v", o.ID, err)
		}
	}

	return o, nil
}

func (s *Service) checkoutTx(ctx context.Context, tx pgx.Tx, userID, cartID string, addr order.ShippingAddress, paymentMethod string) (*order.Order, error) {
	c, err := s.carts.GetByIDTx(ctx, tx, cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if c == nil || c.UserID != userID {
		return nil, apperr.New(apperr.KindNotFound, "cart not found")
	}
	if len(c.Items) == 0 {
		return nil, apperr.New(apperr.KindEmptyCart, "cart is empty")
	}

	seen := make(map[string]bool, len(c.Items))
	for _, it := range c.Items {
		if seen[it.ProductID] {
			// A cart must hold one line per product. Summing duplicates here
			// would hide the upstream bug, so refuse instead.
			return nil, apperr.New(apperr.KindInternal, "cart has duplicate lines for product %s", it.ProductID)
		}
		seen[it.ProductID] = true
	}

	items := make([]order.Item, 0, len(c.Items))
	total := 0.0

	for _, it := range c.Items {
		// Re-fetch under lock; the cart's stored price and stock may be stale.
		p, err := s.products.GetForUpdate(ctx, tx, it.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return nil, apperr.New(apperr.KindNotFound, "product %s not found", it.ProductID)
			}
			return nil, fmt.Errorf("lock product %s: %w", it.ProductID, err)
		}
		if p.Stock < it.Quantity {
			e := apperr.New(apperr.KindInsufficientStock,
				"insufficient stock for %s, available: %d", p.ID, p.Stock)
			e.ProductID = p.ID
			e.Available = p.Stock
			return nil, e
		}

		if err := s.products.DecrementStock(ctx, tx, it.ProductID, it.Quantity); err != nil {
			return nil, fmt.Errorf("decrement stock %s: %w", it.ProductID, err)
		}

		linePrice := p.Price * float64(it.Quantity)
		items = append(items, order.Item{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  it.Quantity,
			Price:     linePrice,
		})
		total += linePrice
	}

	o := &order.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           items,
		TotalAmount:     total,
		ShippingAddress: addr,
		Status:          order.StatusPending,
		Payment: order.PaymentInfo{
			Method: paymentMethod,
			Status: order.PaymentPending,
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.orders.CreateTx(ctx, tx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.carts.ClearTx(ctx, tx, c.ID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	return o, nil
}

// translateConflict maps storage-level aborts to the one retryable kind.
func translateConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return apperr.Wrap(apperr.KindTransactionConflict, err, "checkout aborted by a concurrent transaction")
		}
	}
	return err
}
