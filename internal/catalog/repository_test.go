package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	now := time.Now()

	mock.ExpectQuery("SELECT id, name, price, stock, updated_at FROM products").
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "price", "stock", "updated_at"}).
			AddRow("p1", "Keyboard", 25.0, 7, now))

	p, err := repo.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, Product{ID: "p1", Name: "Keyboard", Price: 25.0, Stock: 7, UpdatedAt: now}, p)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	mock.ExpectQuery("SELECT id, name, price, stock, updated_at FROM products").
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.Get(context.Background(), "ghost")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	mock.ExpectExec("INSERT INTO products").
		WithArgs("p1", "Keyboard", 25.0, 7).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Upsert(context.Background(), Product{ID: "p1", Name: "Keyboard", Price: 25.0, Stock: 7})
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetForUpdateAndDecrement(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "price", "stock"}).
			AddRow("p1", "Keyboard", 25.0, 5))
	mock.ExpectExec("UPDATE products").
		WithArgs("p1", 2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	p, err := repo.GetForUpdate(ctx, tx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)

	require.NoError(t, repo.DecrementStock(ctx, tx, "p1", 2))
	require.NoError(t, tx.Commit(ctx))

	require.NoError(t, mock.ExpectationsWereMet())
}
