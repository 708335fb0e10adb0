package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

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
	return &postgresRepo{q: q, logger: logger.With().Str("repo", "cart").Logger()}
}

// GetByUser reads the cart and its lines in one statement so both come from the
// same snapshot.
func (r *postgresRepo) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	const q = `
SELECT c.id::text, c.user_id::text, c.total_cents, c.version, c.created_at, c.updated_at,
       l.product_id::text, l.quantity, l.unit_price_cents, l.added_at
FROM carts c
LEFT JOIN cart_lines l ON l.cart_id = c.id
WHERE c.user_id = $1
ORDER BY l.position ASC
`
	rows, err := r.q.Query(ctx, q, userID)
	if err != nil {
		return nil, r.mapReadErr(err, userID)
	}
	joined, err := pgx.CollectRows(rows, pgx.RowToStructByPos[cartRow])
	if err != nil {
		return nil, r.mapReadErr(err, userID)
	}
	if len(joined) == 0 {
		return nil, domain.ErrNotFound
	}

	head := joined[0]
	c := domain.Cart{
		ID:         head.ID,
		UserID:     head.UserID,
		TotalCents: head.TotalCents,
		Version:    head.Version,
		CreatedAt:  head.CreatedAt,
		UpdatedAt:  head.UpdatedAt,
	}
	for _, row := range joined {
		if row.ProductID == nil {
			continue // cart without lines
		}
		c.Lines = append(c.Lines, domain.CartLine{
			ProductID:      *row.ProductID,
			Quantity:       int(*row.Quantity),
			UnitPriceCents: *row.UnitPriceCents,
			AddedAt:        *row.AddedAt,
		})
	}
	return &c, nil
}

type cartRow struct {
	ID             string
	UserID         string
	TotalCents     int64
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ProductID      *string
	Quantity       *int32
	UnitPriceCents *int64
	AddedAt        *time.Time
}

func (r *postgresRepo) mapReadErr(err error, userID string) error {
	if db.IsInvalidText(err) {
		return domain.ErrNotFound
	}
	r.logger.Error().Err(err).Str("user_id", userID).Msg("get cart")
	return err
}

func (r *postgresRepo) Create(ctx context.Context, c domain.Cart) (*domain.Cart, error) {
	out, err := db.WithTx(ctx, r.q, func(tx pgx.Tx) (domain.Cart, error) {
		const q = `
INSERT INTO carts (user_id, total_cents, version, created_at, updated_at)
VALUES ($1, $2, 1, $3, $4)
ON CONFLICT (user_id) DO NOTHING
RETURNING id::text, version
`
		created := c
		err := tx.QueryRow(ctx, q, c.UserID, c.TotalCents, c.CreatedAt, c.UpdatedAt).Scan(&created.ID, &created.Version)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// another request created the cart first
				return domain.Cart{}, domain.ErrVersionConflict
			}
			return domain.Cart{}, err
		}
		if err := insertLines(ctx, tx, created.ID, created.Lines); err != nil {
			return domain.Cart{}, err
		}
		return created, nil
	})
	if err != nil {
		return nil, r.mapWriteErr(err, c.UserID)
	}
	return &out, nil
}

func (r *postgresRepo) Save(ctx context.Context, c domain.Cart, expectedVersion int64) (*domain.Cart, error) {
	out, err := db.WithTx(ctx, r.q, func(tx pgx.Tx) (domain.Cart, error) {
		const q = `
UPDATE carts
SET total_cents = $3,
    version = version + 1,
    updated_at = $4
WHERE id = $1 AND version = $2
RETURNING version
`
		saved := c
		if err := tx.QueryRow(ctx, q, c.ID, expectedVersion, c.TotalCents, c.UpdatedAt).Scan(&saved.Version); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.Cart{}, domain.ErrVersionConflict
			}
			return domain.Cart{}, err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, c.ID); err != nil {
			return domain.Cart{}, err
		}
		if err := insertLines(ctx, tx, c.ID, c.Lines); err != nil {
			return domain.Cart{}, err
		}
		return saved, nil
	})
	if err != nil {
		return nil, r.mapWriteErr(err, c.UserID)
	}
	return &out, nil
}

func (r *postgresRepo) mapWriteErr(err error, userID string) error {
	switch {
	case errors.Is(err, domain.ErrVersionConflict):
		return err
	case db.IsUniqueViolation(err), db.IsSerializationFailure(err):
		return domain.ErrVersionConflict
	case db.IsForeignKeyViolation(err):
		// the token outlived its account
		return fmt.Errorf("cart owner %s: %w", userID, domain.ErrNotFound)
	}
	r.logger.Error().Err(err).Str("user_id", userID).Msg("write cart")
	return err
}

func insertLines(ctx context.Context, tx pgx.Tx, cartID string, lines []domain.CartLine) error {
	if len(lines) == 0 {
		return nil
	}
	positions := make([]int32, len(lines))
	products := make([]string, len(lines))
	quantities := make([]int32, len(lines))
	prices := make([]int64, len(lines))
	addedAt := make([]time.Time, len(lines))
	for i, l := range lines {
		positions[i] = int32(i)
		products[i] = l.ProductID
		quantities[i] = int32(l.Quantity)
		prices[i] = l.UnitPriceCents
		addedAt[i] = l.AddedAt
	}
	const q = `
INSERT INTO cart_lines (cart_id, position, product_id, quantity, unit_price_cents, added_at)
SELECT $1, l.position, l.product_id, l.quantity, l.unit_price_cents, l.added_at
FROM unnest($2::int[], $3::uuid[], $4::int[], $5::bigint[], $6::timestamptz[])
    AS l(position, product_id, quantity, unit_price_cents, added_at)
`
	_, err := tx.Exec(ctx, q, cartID, positions, products, quantities, prices, addedAt)
	return err
}
