package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"storefront/internal/domain"
	"storefront/internal/logging"
	cartrepo "storefront/internal/repository/cart"
	"storefront/internal/repository/memory"
	orderrepo "storefront/internal/repository/order"
	"storefront/internal/retry"
	cartsvc "storefront/internal/service/cart"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	store   *memory.Store
	orders  *Service
	carts   *cartsvc.Service
	user    domain.User
	product domain.Product
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	_, err := store.Categories().Upsert(ctx, domain.Category{ID: 1, Type: "Misc"})
	require.NoError(t, err)
	p, err := store.Products().Upsert(ctx, domain.Product{Title: "Mug", PriceCents: 2500, CategoryID: 1})
	require.NoError(t, err)
	u, err := store.Users().Create(ctx, domain.User{Email: gofakeit.Email(), PasswordHash: "h"})
	require.NoError(t, err)

	policy := retry.Policy{Attempts: 50, Initial: time.Microsecond, Max: time.Millisecond}
	return fixture{
		store:   store,
		orders:  New(store, store.Orders(), store.Products(), store.Users(), policy, nil, logging.Discard()),
		carts:   cartsvc.New(store.Carts(), store.Products(), policy, nil, logging.Discard()),
		user:    *u,
		product: *p,
	}
}

func (f fixture) fillCart(t *testing.T, qty int) {
	t.Helper()
	_, err := f.carts.ToggleItem(context.Background(), f.user.ID, cartsvc.ToggleInput{ProductID: f.product.ID, Quantity: qty})
	require.NoError(t, err)
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fillCart(t, 2)

	o, err := f.orders.PlaceOrder(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), o.TotalCents)
	assert.Equal(t, "Your order has been placed and items have been removed from the cart. Your total amount was 50.00", Confirmation(*o))

	c, err := f.store.Carts().GetByUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, c.Lines)
	assert.Zero(t, c.TotalCents)

	history, err := f.orders.GetOrderHistory(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, o.ID, history[0].ID)
}

func TestPlaceOrder_EmptyOrMissingCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orders.PlaceOrder(ctx, f.user.ID)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	f.fillCart(t, 1)
	f.fillCart(t, 1) // toggles the line away again
	_, err = f.orders.PlaceOrder(ctx, f.user.ID)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	history, err := f.orders.GetOrderHistory(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPlaceOrder_ConcurrentCallsCreateOneOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fillCart(t, 3)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.orders.PlaceOrder(ctx, f.user.ID)
		}(i)
	}
	wg.Wait()

	var ok, empty int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrEmptyCart):
			empty++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, empty)

	history, err := f.orders.GetOrderHistory(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestGetOrderDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fillCart(t, 2)
	o, err := f.orders.PlaceOrder(ctx, f.user.ID)
	require.NoError(t, err)

	d, err := f.orders.GetOrderDetails(ctx, f.user.ID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, f.user.Email, d.User.Email)
	require.Len(t, d.Items, 1)
	assert.Equal(t, "Mug", d.Items[0].Product.Title)
	assert.Equal(t, int64(5000), d.Items[0].TotalCents)

	other, err := f.store.Users().Create(ctx, domain.User{Email: gofakeit.Email(), PasswordHash: "h"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		userID  string
		orderID string
	}{
		{name: "unknown id", userID: f.user.ID, orderID: gofakeit.UUID()},
		{name: "malformed id", userID: f.user.ID, orderID: "123"},
		{name: "another owner", userID: other.ID, orderID: o.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.GetOrderDetails(ctx, tt.userID, tt.orderID)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

type conflictingRunner struct{ calls int }

func (r *conflictingRunner) Run(context.Context, func(cartrepo.Repository, orderrepo.Repository) error) error {
	r.calls++
	return domain.ErrVersionConflict
}

func TestPlaceOrder_ExhaustedRetriesAreTransient(t *testing.T) {
	f := newFixture(t)
	runner := &conflictingRunner{}
	svc := New(runner, f.store.Orders(), f.store.Products(), f.store.Users(),
		retry.Policy{Attempts: 3, Initial: time.Microsecond, Max: time.Microsecond}, nil, logging.Discard())

	_, err := svc.PlaceOrder(context.Background(), f.user.ID)
	assert.ErrorIs(t, err, domain.ErrTransientConflict)
	assert.Equal(t, 3, runner.calls)
}
