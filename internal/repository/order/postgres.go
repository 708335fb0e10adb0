package order

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"storefront/internal/db"
	"storefront/internal/domain"
)

type postgresRepo struct {
	q      db.Querier
	logger zerolog.Logger
}

func NewPostgres(q db.Querier, logger zerolog.Logger) Repository {
	return &postgresRepo{q: q, logger: logger.With().Str("repo", "order").Logger()}
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	out, err := db.WithTx(ctx, r.q, func(tx pgx.Tx) (domain.Order, error) {
		const q = `
INSERT INTO orders (user_id, total_cents, created_at)
VALUES ($1, $2, $3)
RETURNING id::text, created_at
`
		created := o
		if err := tx.QueryRow(ctx, q, o.UserID, o.TotalCents, o.CreatedAt).Scan(&created.ID, &created.CreatedAt); err != nil {
			return domain.Order{}, err
		}

		positions := make([]int32, len(o.Lines))
		products := make([]string, len(o.Lines))
		quantities := make([]int32, len(o.Lines))
		prices := make([]int64, len(o.Lines))
		for i, l := range o.Lines {
			positions[i] = int32(i)
			products[i] = l.ProductID
			quantities[i] = int32(l.Quantity)
			prices[i] = l.UnitPriceCents
		}
		const linesQ = `
INSERT INTO order_lines (order_id, position, product_id, quantity, unit_price_cents)
SELECT $1, l.position, l.product_id, l.quantity, l.unit_price_cents
FROM unnest($2::int[], $3::uuid[], $4::int[], $5::bigint[])
    AS l(position, product_id, quantity, unit_price_cents)
`
		if _, err := tx.Exec(ctx, linesQ, created.ID, positions, products, quantities, prices); err != nil {
			return domain.Order{}, err
		}
		return created, nil
	})
	if err != nil {
		if db.IsSerializationFailure(err) {
			return nil, domain.ErrVersionConflict
		}
		r.logger.Error().Err(err).Str("user_id", o.UserID).Msg("create order")
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	const q = `
SELECT id::text, user_id::text, total_cents, created_at
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
`
	rows, err := r.q.Query(ctx, q, userID)
	if err != nil {
		if db.IsInvalidText(err) {
			return []domain.Order{}, nil
		}
		r.logger.Error().Err(err).Str("user_id", userID).Msg("list orders")
		return nil, err
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		if db.IsInvalidText(err) {
			return []domain.Order{}, nil
		}
		return nil, err
	}
	if err := r.attachLines(ctx, orders); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("list order lines")
		return nil, err
	}
	return orders, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const q = `
SELECT id::text, user_id::text, total_cents, created_at
FROM orders
WHERE id = $1
`
	rows, err := r.q.Query(ctx, q, id)
	if err != nil {
		return nil, r.mapReadErr(err, id)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		return nil, r.mapReadErr(err, id)
	}
	orders := []domain.Order{o}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *postgresRepo) attachLines(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
		orders[i].Lines = []domain.OrderLine{}
	}
	const q = `
SELECT order_id::text, product_id::text, quantity, unit_price_cents
FROM order_lines
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, position ASC
`
	rows, err := r.q.Query(ctx, q, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var orderID string
		var l domain.OrderLine
		if err := rows.Scan(&orderID, &l.ProductID, &l.Quantity, &l.UnitPriceCents); err != nil {
			return err
		}
		i := index[orderID]
		orders[i].Lines = append(orders[i].Lines, l)
	}
	return rows.Err()
}

func (r *postgresRepo) mapReadErr(err error, id string) error {
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidText(err) {
		return domain.ErrNotFound
	}
	r.logger.Error().Err(err).Str("id", id).Msg("get order")
	return err
}

func scanOrder(row pgx.CollectableRow) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.UserID, &o.TotalCents, &o.CreatedAt)
	return o, err
}
