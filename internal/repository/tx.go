package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/repository/cart"
	"storefront/internal/repository/order"
)

// TxRunner runs callbacks inside a Postgres transaction with repositories
// bound to it.
type TxRunner struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewTxRunner(pool *pgxpool.Pool, logger zerolog.Logger) *TxRunner {
	return &TxRunner{pool: pool, logger: logger}
}

// Run begins a transaction, calls fn with cart and order repositories using it,
// and commits when fn returns nil. Any error rolls the transaction back.
func (r *TxRunner) Run(ctx context.Context, fn func(carts cart.Repository, orders order.Repository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(cart.NewPostgres(tx, r.logger), order.NewPostgres(tx, r.logger)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if db.IsSerializationFailure(err) {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
