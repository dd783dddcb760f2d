package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saraelshenawy632/project-grad/internal/db"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrStateConflict means the row was not in the state the conditional
	// update required. Payment capture races, double-captures and illegal
	// status jumps all land here.
	ErrStateConflict = errors.New("order state conflict")
)

type Repository interface {
	CreateTx(ctx context.Context, tx pgx.Tx, o *Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	GetForUser(ctx context.Context, orderID, userID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID string, from, to Status) error
	MarkPaymentCompletedTx(ctx context.Context, tx pgx.Tx, orderID, transactionID string) error
	MarkPaymentFailedTx(ctx context.Context, tx pgx.Tx, orderID string) error
	MarkPaymentRefundedTx(ctx context.Context, tx pgx.Tx, orderID string) error
}

type PostgresRepository struct {
	pool db.Pool
}

func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CreateTx(ctx context.Context, tx pgx.Tx, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, total_amount, order_status,
			payment_method, payment_status, payment_transaction_id,
			ship_street, ship_city, ship_state, ship_zip, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, o.ID, o.UserID, o.TotalAmount, o.Status,
		o.Payment.Method, o.Payment.Status, o.Payment.TransactionID,
		o.ShippingAddress.Street, o.ShippingAddress.City, o.ShippingAddress.State, o.ShippingAddress.Zip,
		o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, quantity, price)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.NewString(), o.ID, it.ProductID, it.Name, it.Quantity, it.Price)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	return nil
}

const selectOrderSQL = `
SELECT id, user_id, total_amount, order_status,
       payment_method, payment_status, payment_transaction_id,
       ship_street, ship_city, ship_state, ship_zip, created_at
FROM orders`

func (r *PostgresRepository) GetByID(ctx context.Context, orderID string) (*Order, error) {
	return r.get(ctx, selectOrderSQL+` WHERE id = $1`, orderID)
}

func (r *PostgresRepository) GetForUser(ctx context.Context, orderID, userID string) (*Order, error) {
	return r.get(ctx, selectOrderSQL+` WHERE id = $1 AND user_id = $2`, orderID, userID)
}

func (r *PostgresRepository) get(ctx context.Context, sql string, args ...any) (*Order, error) {
	var o Order
	err := r.pool.QueryRow(ctx, sql, args...).Scan(
		&o.ID, &o.UserID, &o.TotalAmount, &o.Status,
		&o.Payment.Method, &o.Payment.Status, &o.Payment.TransactionID,
		&o.ShippingAddress.Street, &o.ShippingAddress.City, &o.ShippingAddress.State, &o.ShippingAddress.Zip,
		&o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT product_id, name, quantity, price FROM order_items WHERE order_id = $1`, o.ID)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return &o, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.pool.Query(ctx,
		selectOrderSQL+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.TotalAmount, &o.Status,
			&o.Payment.Method, &o.Payment.Status, &o.Payment.TransactionID,
			&o.ShippingAddress.Street, &o.ShippingAddress.City, &o.ShippingAddress.State, &o.ShippingAddress.Zip,
			&o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for i := range orders {
		itemRows, err := r.pool.Query(ctx,
			`SELECT product_id, name, quantity, price FROM order_items WHERE order_id = $1`, orders[i].ID)
		if err != nil {
			return nil, fmt.Errorf("select items: %w", err)
		}
		for itemRows.Next() {
			var it Item
			if err := itemRows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.Price); err != nil {
				itemRows.Close()
				return nil, fmt.Errorf("scan item: %w", err)
			}
			orders[i].Items = append(orders[i].Items, it)
		}
		itemRows.Close()
		if err := itemRows.Err(); err != nil {
			return nil, fmt.Errorf("rows: %w", err)
		}
	}

	return orders, nil
}

// UpdateStatus moves the order from one fulfillment status to another. The
// update is conditional on the current status so two racing transitions
// cannot both win.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, orderID string, from, to Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET order_status = $3 WHERE id = $1 AND order_status = $2`,
		orderID, from, to)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStateConflict
	}
	return nil
}

func (r *PostgresRepository) MarkPaymentCompletedTx(ctx context.Context, tx pgx.Tx, orderID, transactionID string) error {
	// A previously failed attempt may be retried, so both pending and failed
	// qualify for capture. Completed and refunded never do.
	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET payment_status = $3, payment_transaction_id = $2, order_status = $4
		WHERE id = $1 AND payment_status IN ($5, $6)
	`, orderID, transactionID, PaymentCompleted, StatusProcessing, PaymentPending, PaymentFailed)
	if err != nil {
		return fmt.Errorf("mark payment completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStateConflict
	}
	return nil
}

func (r *PostgresRepository) MarkPaymentFailedTx(ctx context.Context, tx pgx.Tx, orderID string) error {
	// A failed attempt leaves the order status at pending so the user can retry.
	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET payment_status = $2
		WHERE id = $1 AND payment_status IN ($3, $2)
	`, orderID, PaymentFailed, PaymentPending)
	if err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStateConflict
	}
	return nil
}

func (r *PostgresRepository) MarkPaymentRefundedTx(ctx context.Context, tx pgx.Tx, orderID string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET payment_status = $2
		WHERE id = $1 AND payment_status = $3
	`, orderID, PaymentRefunded, PaymentCompleted)
	if err != nil {
		return fmt.Errorf("mark payment refunded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStateConflict
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
