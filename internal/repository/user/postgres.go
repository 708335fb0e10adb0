package user

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"storefront/internal/db"
	"storefront/internal/domain"
)

type postgresRepo struct {
	q      db.Querier
	logger zerolog.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(q db.Querier, logger zerolog.Logger) Repository {
	return &postgresRepo{q: q, logger: logger.With().Str("repo", "user").Logger()}
}

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	const q = `
INSERT INTO users (email, password_hash, refresh_token)
VALUES ($1, $2, $3)
RETURNING id::text, email, password_hash, refresh_token, created_at
`
	return r.scanUser(r.q.QueryRow(ctx, q, strings.ToLower(u.Email), u.PasswordHash, u.RefreshToken))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `
SELECT id::text, email, password_hash, refresh_token, created_at
FROM users
WHERE lower(email) = lower($1)
LIMIT 1
`
	return r.scanUser(r.q.QueryRow(ctx, q, email))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `
SELECT id::text, email, password_hash, refresh_token, created_at
FROM users
WHERE id = $1
`
	return r.scanUser(r.q.QueryRow(ctx, q, id))
}

func (r *postgresRepo) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.RefreshToken, &u.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows), db.IsInvalidText(err):
			return nil, domain.ErrNotFound
		case db.IsUniqueViolation(err):
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error().Err(err).Msg("scan user")
		return nil, err
	}
	return &u, nil
}
