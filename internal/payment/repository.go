package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/saraelshenawy632/project-grad/internal/db"
)

var ErrNotFound = errors.New("payment not found")

type Repository interface {
	GetByTransactionID(ctx context.Context, transactionID string) (*Payment, error)
	CreateTx(ctx context.Context, tx pgx.Tx, p *Payment) error
	// GetByTransactionIDForUpdate locks the payment row so concurrent refunds
	// against the same charge serialize on it.
	GetByTransactionIDForUpdate(ctx context.Context, tx pgx.Tx, transactionID string) (*Payment, error)
	SumRefundsTx(ctx context.Context, tx pgx.Tx, transactionID string) (float64, error)
	MarkRefundedTx(ctx context.Context, tx pgx.Tx, paymentID string) error
}

type PostgresRepository struct {
	pool db.Pool
}

func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectPaymentSQL = `
SELECT id, order_id, user_id, amount, currency, method,
       transaction_id, status, error_message, refund_of, created_at
FROM payments`

func (r *PostgresRepository) GetByTransactionID(ctx context.Context, transactionID string) (*Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx, selectPaymentSQL+` WHERE transaction_id = $1`, transactionID))
}

func (r *PostgresRepository) GetByTransactionIDForUpdate(ctx context.Context, tx pgx.Tx, transactionID string) (*Payment, error) {
	return scanPayment(tx.QueryRow(ctx, selectPaymentSQL+` WHERE transaction_id = $1 FOR UPDATE`, transactionID))
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.UserID, &p.Amount, &p.Currency, &p.Method,
		&p.TransactionID, &p.Status, &p.ErrorMessage, &p.RefundOf, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select payment: %w", err)
	}
	return &p, nil
}

func (r *PostgresRepository) CreateTx(ctx context.Context, tx pgx.Tx, p *Payment) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO payments (id, order_id, user_id, amount, currency, method,
			transaction_id, status, error_message, refund_of, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, p.ID, p.OrderID, p.UserID, p.Amount, p.Currency, p.Method,
		p.TransactionID, p.Status, p.ErrorMessage, p.RefundOf, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SumRefundsTx(ctx context.Context, tx pgx.Tx, transactionID string) (float64, error) {
	var sum float64
	err := tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE refund_of = $1`, transactionID).
		Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum refunds: %w", err)
	}
	return sum, nil
}

func (r *PostgresRepository) MarkRefundedTx(ctx context.Context, tx pgx.Tx, paymentID string) error {
	_, err := tx.Exec(ctx,
		`UPDATE payments SET status = $2 WHERE id = $1`, paymentID, StatusRefunded)
	if err != nil {
		return fmt.Errorf("mark payment refunded: %w", err)
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
