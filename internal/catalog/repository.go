package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/saraelshenawy632/project-grad/internal/db"
)

var ErrNotFound = errors.New("not found")

type Repository interface {
	Get(ctx context.Context, productID string) (Product, error)
	Upsert(ctx context.Context, p Product) error

	// GetForUpdate locks the product row inside tx. The lock is what keeps
	// concurrent checkouts from both passing the stock check on the last unit.
	GetForUpdate(ctx context.Context, tx pgx.Tx, productID string) (Product, error)
	DecrementStock(ctx context.Context, tx pgx.Tx, productID string, quantity int) error
}

type PostgresRepository struct {
	pool db.Pool
}

func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Get(ctx context.Context, productID string) (Product, error) {
	var p Product
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, price, stock, updated_at FROM products WHERE id=$1`, productID)
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, p Product) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products(id, name, price, stock)
		VALUES($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name=EXCLUDED.name, price=EXCLUDED.price, stock=EXCLUDED.stock, updated_at=now()
	`, p.ID, p.Name, p.Price, p.Stock)
	return err
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, productID string) (Product, error) {
	var p Product
	err := tx.QueryRow(ctx, `
		SELECT id, name, price, stock
		FROM products
		WHERE id=$1
		FOR UPDATE
	`, productID).Scan(&p.ID, &p.Name, &p.Price, &p.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) DecrementStock(ctx context.Context, tx pgx.Tx, productID string, quantity int) error {
	_, err := tx.Exec(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at=now()
		WHERE id=$1
	`, productID, quantity)
	return err
}
