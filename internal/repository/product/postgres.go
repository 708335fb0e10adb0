package product

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
	return &postgresRepo{q: q, logger: logger.With().Str("repo", "product").Logger()}
}

const selectProduct = `
SELECT id::text, title, price_cents, description, availability, category_id, created_at
FROM products
`

func (r *postgresRepo) ListByCategory(ctx context.Context, categoryID int) ([]domain.Product, error) {
	const q = selectProduct + `
WHERE category_id = $1
ORDER BY created_at ASC, id ASC
`
	rows, err := r.q.Query(ctx, q, categoryID)
	if err != nil {
		r.logger.Error().Err(err).Int("category_id", categoryID).Msg("list products")
		return nil, err
	}
	result, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		r.logger.Error().Err(err).Int("category_id", categoryID).Msg("list products rows")
		return nil, err
	}
	r.logger.Debug().Int("category_id", categoryID).Int("count", len(result)).Msg("list products")
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	const q = selectProduct + `
WHERE id = $1
`
	rows, err := r.q.Query(ctx, q, id)
	if err != nil {
		return nil, r.mapErr(err, id)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		return nil, r.mapErr(err, id)
	}
	return &p, nil
}

func (r *postgresRepo) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	const q = selectProduct + `
WHERE id = ANY($1::uuid[])
`
	rows, err := r.q.Query(ctx, q, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("ids", len(ids)).Msg("get products by ids")
		return nil, err
	}
	list, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (id, title, price_cents, description, availability, category_id)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    title = EXCLUDED.title,
    price_cents = EXCLUDED.price_cents,
    description = EXCLUDED.description,
    availability = EXCLUDED.availability,
    category_id = EXCLUDED.category_id
RETURNING id::text, title, price_cents, description, availability, category_id, created_at
`
	rows, err := r.q.Query(ctx, q, p.ID, p.Title, p.PriceCents, p.Description, p.Available, p.CategoryID)
	if err != nil {
		r.logger.Error().Err(err).Str("title", p.Title).Msg("upsert product")
		return nil, err
	}
	res, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		r.logger.Error().Err(err).Str("title", p.Title).Msg("upsert product")
		return nil, err
	}
	r.logger.Debug().Str("id", res.ID).Int("category_id", res.CategoryID).Msg("upserted product")
	return &res, nil
}

func (r *postgresRepo) mapErr(err error, id string) error {
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidText(err) {
		return domain.ErrNotFound
	}
	r.logger.Error().Err(err).Str("id", id).Msg("get product")
	return err
}

func scanProduct(row pgx.CollectableRow) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Title, &p.PriceCents, &p.Description, &p.Available, &p.CategoryID, &p.CreatedAt)
	return p, err
}
