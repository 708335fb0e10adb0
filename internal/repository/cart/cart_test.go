package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/repository/category"
	"storefront/internal/repository/pgtest"
	"storefront/internal/repository/product"
	"storefront/internal/repository/user"
)

type fixture struct {
	userID   string
	products []string
}

func seed(t *testing.T, pool *pgxpool.Pool, nProducts int) fixture {
	t.Helper()
	ctx := context.Background()
	u, err := user.NewPostgres(pool, logging.Discard()).Create(ctx, domain.User{Email: gofakeit.Email(), PasswordHash: "h"})
	require.NoError(t, err)
	_, err = category.NewPostgres(pool).Upsert(ctx, domain.Category{ID: 1, Type: "Misc"})
	require.NoError(t, err)

	products := product.NewPostgres(pool, logging.Discard())
	f := fixture{userID: u.ID}
	for i := 0; i < nProducts; i++ {
		p, err := products.Upsert(ctx, domain.Product{Title: gofakeit.ProductName(), PriceCents: 1000, CategoryID: 1})
		require.NoError(t, err)
		f.products = append(f.products, p.ID)
	}
	return f
}

func TestPostgres_CreateAndGet(t *testing.T) {
	pool := pgtest.Start(t)
	ctx := context.Background()
	f := seed(t, pool, 2)
	repo := NewPostgres(pool, logging.Discard())

	_, err := repo.GetByUser(ctx, f.userID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	now := time.Now().UTC().Truncate(time.Microsecond)
	c := domain.NewCart(f.userID, now)
	_, err = c.Toggle(f.products[0], 2, 1000, now)
	require.NoError(t, err)

	created, err := repo.Create(ctx, *c)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(1), created.Version)

	fetched, err := repo.GetByUser(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, int64(2000), fetched.TotalCents)
	require.Len(t, fetched.Lines, 1)
	assert.Equal(t, f.products[0], fetched.Lines[0].ProductID)
	assert.True(t, now.Equal(fetched.Lines[0].AddedAt))

	_, err = repo.Create(ctx, *c)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
}

func TestPostgres_SaveKeepsLineOrder(t *testing.T) {
	pool := pgtest.Start(t)
	ctx := context.Background()
	f := seed(t, pool, 3)
	repo := NewPostgres(pool, logging.Discard())

	now := time.Now()
	c := domain.NewCart(f.userID, now)
	_, err := c.Toggle(f.products[0], 1, 100, now)
	require.NoError(t, err)
	stored, err := repo.Create(ctx, *c)
	require.NoError(t, err)

	for _, id := range []string{f.products[2], f.products[1]} {
		_, err = stored.Toggle(id, 1, 100, now)
		require.NoError(t, err)
	}
	saved, err := repo.Save(ctx, *stored, stored.Version)
	require.NoError(t, err)
	assert.Equal(t, stored.Version+1, saved.Version)

	fetched, err := repo.GetByUser(ctx, f.userID)
	require.NoError(t, err)
	got := make([]string, 0, len(fetched.Lines))
	for _, l := range fetched.Lines {
		got = append(got, l.ProductID)
	}
	assert.Equal(t, []string{f.products[0], f.products[2], f.products[1]}, got)
	assert.Equal(t, int64(300), fetched.TotalCents)
}

func TestPostgres_SaveStaleVersionConflicts(t *testing.T) {
	pool := pgtest.Start(t)
	ctx := context.Background()
	f := seed(t, pool, 1)
	repo := NewPostgres(pool, logging.Discard())

	now := time.Now()
	created, err := repo.Create(ctx, *domain.NewCart(f.userID, now))
	require.NoError(t, err)

	const writers = 6
	var wg sync.WaitGroup
	results := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := created.Clone()
			if _, err := c.Toggle(f.products[0], 1, 500, now); err != nil {
				results[i] = err
				return
			}
			_, results[i] = repo.Save(ctx, *c, created.Version)
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrVersionConflict)
	}
	assert.Equal(t, 1, ok)

	fetched, err := repo.GetByUser(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), fetched.TotalCents)
	assert.Equal(t, created.Version+1, fetched.Version)
}

func TestPostgres_CreateForMissingUserIsNotFound(t *testing.T) {
	pool := pgtest.Start(t)
	ctx := context.Background()
	seed(t, pool, 0)
	repo := NewPostgres(pool, logging.Discard())

	_, err := repo.Create(ctx, *domain.NewCart(gofakeit.UUID(), time.Now()))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgres_GetByUserSeesOneVersion(t *testing.T) {
	pool := pgtest.Start(t)
	ctx := context.Background()
	f := seed(t, pool, 4)
	repo := NewPostgres(pool, logging.Discard())

	_, err := repo.Create(ctx, *domain.NewCart(f.userID, time.Now()))
	require.NoError(t, err)

	done := make(chan struct{})
	stop := sync.OnceFunc(func() { close(done) })
	defer stop()
	writerErr := make(chan error, 1)
	go func() {
		defer close(writerErr)
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			current, err := repo.GetByUser(ctx, f.userID)
			if err != nil {
				writerErr <- err
				return
			}
			now := time.Now()
			if _, err := current.Toggle(f.products[i%len(f.products)], 1+i%3, int64(100*(1+i%7)), now); err != nil {
				writerErr <- err
				return
			}
			if _, err := repo.Save(ctx, *current, current.Version); err != nil {
				writerErr <- err
				return
			}
		}
	}()

	for range 300 {
		c, err := repo.GetByUser(ctx, f.userID)
		require.NoError(t, err)
		require.Equal(t, c.LinesTotal(), c.TotalCents, "version %d", c.Version)
	}
	stop()
	require.NoError(t, <-writerErr)
}
