package product

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/repository/category"
	"storefront/internal/repository/pgtest"
)

func TestPostgres_ListAndGet(t *testing.T) {
	pool := pgtest.Start(t)
	ctx := context.Background()

	_, err := category.NewPostgres(pool).Upsert(ctx, domain.Category{ID: 3, Type: "Toys"})
	require.NoError(t, err)

	repo := NewPostgres(pool, logging.Discard())
	want := domain.Product{
		Title:       gofakeit.ProductName(),
		PriceCents:  1999,
		Description: gofakeit.Sentence(8),
		Available:   true,
		CategoryID:  3,
	}
	created, err := repo.Upsert(ctx, want)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(want, *got, cmpopts.IgnoreFields(domain.Product{}, "ID", "CreatedAt")))

	list, err := repo.ListByCategory(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	empty, err := repo.ListByCategory(ctx, 4)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPostgres_GetByIDNotFound(t *testing.T) {
	pool := pgtest.Start(t)
	repo := NewPostgres(pool, logging.Discard())

	for _, id := range []string{gofakeit.UUID(), "garbage"} {
		_, err := repo.GetByID(context.Background(), id)
		assert.ErrorIs(t, err, domain.ErrNotFound, id)
	}
}

func TestPostgres_GetByIDsAndUpsertUpdates(t *testing.T) {
	pool := pgtest.Start(t)
	ctx := context.Background()
	_, err := category.NewPostgres(pool).Upsert(ctx, domain.Category{ID: 1, Type: "Books"})
	require.NoError(t, err)
	repo := NewPostgres(pool, logging.Discard())

	a, err := repo.Upsert(ctx, domain.Product{Title: "A", PriceCents: 100, CategoryID: 1, Available: true})
	require.NoError(t, err)
	b, err := repo.Upsert(ctx, domain.Product{Title: "B", PriceCents: 200, CategoryID: 1})
	require.NoError(t, err)

	found, err := repo.GetByIDs(ctx, []string{a.ID, b.ID, gofakeit.UUID()})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, "B", found[b.ID].Title)

	a.PriceCents = 150
	updated, err := repo.Upsert(ctx, *a)
	require.NoError(t, err)
	assert.Equal(t, a.ID, updated.ID)
	assert.Equal(t, int64(150), updated.PriceCents)
}
