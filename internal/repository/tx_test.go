package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/repository"
	cartrepo "storefront/internal/repository/cart"
	categoryrepo "storefront/internal/repository/category"
	orderrepo "storefront/internal/repository/order"
	"storefront/internal/repository/pgtest"
	productrepo "storefront/internal/repository/product"
	userrepo "storefront/internal/repository/user"
	"storefront/internal/retry"
	cartsvc "storefront/internal/service/cart"
	ordersvc "storefront/internal/service/order"
)

type fixture struct {
	pool     *pgxpool.Pool
	user     domain.User
	products []domain.Product
	carts    *cartsvc.Service
	orders   *ordersvc.Service
}

func newFixture(t *testing.T, nProducts int) fixture {
	t.Helper()
	ctx := context.Background()
	pool := pgtest.Start(t)
	logger := logging.Discard()

	users := userrepo.NewPostgres(pool, logger)
	products := productrepo.NewPostgres(pool, logger)
	u, err := users.Create(ctx, domain.User{Email: gofakeit.Email(), PasswordHash: "h"})
	require.NoError(t, err)
	_, err = categoryrepo.NewPostgres(pool).Upsert(ctx, domain.Category{ID: 1, Type: "Misc"})
	require.NoError(t, err)

	f := fixture{pool: pool, user: *u}
	for i := 0; i < nProducts; i++ {
		p, err := products.Upsert(ctx, domain.Product{Title: gofakeit.ProductName(), PriceCents: int64(1000 * (i + 1)), CategoryID: 1})
		require.NoError(t, err)
		f.products = append(f.products, *p)
	}

	policy := retry.Policy{Attempts: 100, Initial: time.Millisecond, Max: 20 * time.Millisecond}
	f.carts = cartsvc.New(cartrepo.NewPostgres(pool, logger), products, policy, nil, logger)
	f.orders = ordersvc.New(repository.NewTxRunner(pool, logger), orderrepo.NewPostgres(pool, logger), products, users, policy, nil, logger)
	return f
}

func (f fixture) countOrders(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, f.pool.QueryRow(context.Background(), `SELECT count(*) FROM orders WHERE user_id = $1`, f.user.ID).Scan(&n))
	return n
}

func TestTxRunner_ConcurrentPlaceOrderCreatesOneOrder(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	for _, p := range f.products {
		_, err := f.carts.ToggleItem(ctx, f.user.ID, cartsvc.ToggleInput{ProductID: p.ID, Quantity: 2})
		require.NoError(t, err)
	}

	const callers = 8
	var wg sync.WaitGroup
	placed := make([]*domain.Order, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			placed[i], errs[i] = f.orders.PlaceOrder(ctx, f.user.ID)
		}()
	}
	wg.Wait()

	var ok int
	for i, err := range errs {
		if err == nil {
			ok++
			assert.Equal(t, int64(6000), placed[i].TotalCents)
			continue
		}
		assert.ErrorIs(t, err, domain.ErrEmptyCart)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, f.countOrders(t))

	c, err := cartrepo.NewPostgres(f.pool, logging.Discard()).GetByUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
	assert.Zero(t, c.TotalCents)
}

func TestTxRunner_ConcurrentToggleKeepsTotalConsistent(t *testing.T) {
	f := newFixture(t, 6)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, len(f.products))
	for i, p := range f.products {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.carts.ToggleItem(ctx, f.user.ID, cartsvc.ToggleInput{ProductID: p.ID, Quantity: 1})
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	var carts int
	require.NoError(t, f.pool.QueryRow(ctx, `SELECT count(*) FROM carts WHERE user_id = $1`, f.user.ID).Scan(&carts))
	assert.Equal(t, 1, carts)

	var total, sum int64
	require.NoError(t, f.pool.QueryRow(ctx, `
SELECT c.total_cents, COALESCE(SUM(l.unit_price_cents * l.quantity), 0)::bigint
FROM carts c LEFT JOIN cart_lines l ON l.cart_id = c.id
WHERE c.user_id = $1
GROUP BY c.total_cents`, f.user.ID).Scan(&total, &sum))
	assert.Equal(t, sum, total)
	assert.Equal(t, int64(21000), total)
}

func TestTxRunner_ErrorRollsBackEveryWrite(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	_, err := f.carts.ToggleItem(ctx, f.user.ID, cartsvc.ToggleInput{ProductID: f.products[0].ID, Quantity: 3})
	require.NoError(t, err)

	boom := errors.New("boom")
	runner := repository.NewTxRunner(f.pool, logging.Discard())
	err = runner.Run(ctx, func(carts cartrepo.Repository, orders orderrepo.Repository) error {
		c, err := carts.GetByUser(ctx, f.user.ID)
		if err != nil {
			return err
		}
		now := time.Now()
		snapshot := domain.OrderFromCart(*c, now)
		cleared := c.Clone()
		cleared.Clear(now)
		if _, err := carts.Save(ctx, *cleared, c.Version); err != nil {
			return err
		}
		if _, err := orders.Create(ctx, snapshot); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Zero(t, f.countOrders(t))
	c, err := cartrepo.NewPostgres(f.pool, logging.Discard()).GetByUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), c.TotalCents)
	assert.Len(t, c.Lines, 1)
}
