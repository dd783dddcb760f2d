package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saraelshenawy632/project-grad/internal/db"
)

type Repository interface {
	// GetByUser returns nil, nil when the user has no cart yet.
	GetByUser(ctx context.Context, userID string) (*Cart, error)
	Upsert(ctx context.Context, c *Cart) error
	Clear(ctx context.Context, cartID string) error

	// GetByIDTx and ClearTx run inside the checkout transaction.
	GetByIDTx(ctx context.Context, tx pgx.Tx, cartID string) (*Cart, error)
	ClearTx(ctx context.Context, tx pgx.Tx, cartID string) error
}

type PostgresRepository struct {
	pool db.Pool
}

func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) GetByUser(ctx context.Context, userID string) (*Cart, error) {
	var c Cart
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, total, updated_at FROM carts WHERE user_id = $1`, userID).
		Scan(&c.ID, &c.UserID, &c.Total, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// caller decides whether a missing cart is a 404 or a lazy create
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT product_id, quantity, price FROM cart_items WHERE cart_id = $1`, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, c *Cart) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	const upsertCartSQL = `
INSERT INTO carts (id, user_id, total, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (user_id) DO UPDATE
SET total = EXCLUDED.total, updated_at = now()
RETURNING id, updated_at
`
	if err := tx.QueryRow(ctx, upsertCartSQL, c.ID, c.UserID, c.Total).Scan(&c.ID, &c.UpdatedAt); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, c.ID); err != nil {
		return err
	}

	for _, it := range c.Items {
		_, err := tx.Exec(ctx,
			`INSERT INTO cart_items (id, cart_id, product_id, quantity, price) VALUES ($1, $2, $3, $4, $5)`,
			uuid.NewString(), c.ID, it.ProductID, it.Quantity, it.Price)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Clear empties the cart and resets its total. The cart row itself survives;
// carts are created lazily and never deleted.
func (r *PostgresRepository) Clear(ctx context.Context, cartID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.ClearTx(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PostgresRepository) GetByIDTx(ctx context.Context, tx pgx.Tx, cartID string) (*Cart, error) {
	var c Cart
	err := tx.QueryRow(ctx,
		`SELECT id, user_id, total, updated_at FROM carts WHERE id = $1`, cartID).
		Scan(&c.ID, &c.UserID, &c.Total, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := tx.Query(ctx,
		`SELECT product_id, quantity, price FROM cart_items WHERE cart_id = $1`, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *PostgresRepository) ClearTx(ctx context.Context, tx pgx.Tx, cartID string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return err
	}
	_, err := tx.Exec(ctx,
		`UPDATE carts SET total = 0, updated_at = now() WHERE id = $1`, cartID)
	return err
}

var _ Repository = (*PostgresRepository)(nil)
