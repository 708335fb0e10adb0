package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartToggle_AddThenRemove(t *testing.T) {
	now := time.Now()
	cart := NewCart("user-1", now)

	action, err := cart.Toggle("p1", 2, 1000, now)
	require.NoError(t, err)
	assert.Equal(t, CartActionAdded, action)
	assert.Equal(t, int64(2000), cart.TotalCents)
	require.Len(t, cart.Lines, 1)

	action, err = cart.Toggle("p1", 2, 1000, now)
	require.NoError(t, err)
	assert.Equal(t, CartActionRemoved, action)
	assert.Equal(t, int64(0), cart.TotalCents)
	assert.Empty(t, cart.Lines)
}

func TestCartToggle_RemoveUsesRecordedAmount(t *testing.T) {
	now := time.Now()
	cart := NewCart("user-1", now)
	_, err := cart.Toggle("p1", 3, 250, now)
	require.NoError(t, err)

	// the second call carries a different price and quantity; the recorded line wins
	action, err := cart.Toggle("p1", 1, 99999, now)
	require.NoError(t, err)
	assert.Equal(t, CartActionRemoved, action)
	assert.Equal(t, int64(0), cart.TotalCents)
}

func TestCartToggle_RemovesOnlyMatchingLine(t *testing.T) {
	now := time.Now()
	cart := NewCart("user-1", now)
	for _, id := range []string{"a", "b", "c"} {
		_, err := cart.Toggle(id, 1, 100, now)
		require.NoError(t, err)
	}

	_, err := cart.Toggle("b", 1, 100, now)
	require.NoError(t, err)

	require.Len(t, cart.Lines, 2)
	assert.Equal(t, "a", cart.Lines[0].ProductID)
	assert.Equal(t, "c", cart.Lines[1].ProductID)
	assert.Equal(t, int64(200), cart.TotalCents)
}

func TestCartToggle_Validation(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name      string
		productID string
		quantity  int
		price     int64
	}{
		{name: "empty product", productID: "", quantity: 1, price: 1},
		{name: "zero quantity", productID: "p", quantity: 0, price: 1},
		{name: "negative quantity", productID: "p", quantity: -2, price: 1},
		{name: "negative price", productID: "p", quantity: 1, price: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := NewCart("u", now)
			_, err := cart.Toggle(tt.productID, tt.quantity, tt.price, now)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Empty(t, cart.Lines)
			assert.Zero(t, cart.TotalCents)
		})
	}
}

func TestCartToggle_NeverNegative(t *testing.T) {
	now := time.Now()
	cart := NewCart("u", now)
	_, err := cart.Toggle("p1", 1, 500, now)
	require.NoError(t, err)

	// simulate a corrupted stored total
	cart.TotalCents = 100
	before := cart.Clone()

	_, err = cart.Toggle("p1", 1, 500, now)
	require.True(t, errors.Is(err, ErrNegativeTotal))
	assert.Equal(t, before.Lines, cart.Lines)
	assert.Equal(t, before.TotalCents, cart.TotalCents)
}

func TestCartToggle_TotalMatchesLinesForRandomSequences(t *testing.T) {
	products := []string{"p1", "p2", "p3", "p4", "p5", "p6"}
	now := time.Now()

	for run := 0; run < 200; run++ {
		cart := NewCart(gofakeit.UUID(), now)
		steps := gofakeit.IntRange(1, 60)
		for i := 0; i < steps; i++ {
			id := products[gofakeit.IntRange(0, len(products)-1)]
			qty := gofakeit.IntRange(1, 20)
			price := int64(gofakeit.IntRange(0, 100_000))

			_, err := cart.Toggle(id, qty, price, now)
			require.NoError(t, err)
			require.Equal(t, cart.LinesTotal(), cart.TotalCents, "run %d step %d", run, i)
			require.GreaterOrEqual(t, cart.TotalCents, int64(0))
		}
	}
}

func TestCartToggle_PairRestoresPriorState(t *testing.T) {
	now := time.Now()

	for run := 0; run < 100; run++ {
		cart := NewCart("u", now)
		n := gofakeit.IntRange(0, 8)
		for i := 0; i < n; i++ {
			_, err := cart.Toggle(gofakeit.UUID(), gofakeit.IntRange(1, 5), int64(gofakeit.IntRange(1, 5000)), now)
			require.NoError(t, err)
		}
		before := cart.Clone()

		id := gofakeit.UUID()
		if len(cart.Lines) > 0 && gofakeit.Bool() {
			id = cart.Lines[gofakeit.IntRange(0, len(cart.Lines)-1)].ProductID
		}
		qty := gofakeit.IntRange(1, 5)
		price := int64(gofakeit.IntRange(1, 5000))

		first, err := cart.Toggle(id, qty, price, now)
		require.NoError(t, err)
		second, err := cart.Toggle(id, qty, price, now)
		require.NoError(t, err)
		assert.NotEqual(t, first, second)

		if first == CartActionAdded {
			// add then remove: exactly the prior state
			assert.Empty(t, cmp.Diff(before.Lines, cart.Lines, cmpopts.EquateEmpty()))
		} else {
			// remove then re-add: same set of lines, re-added line moves to the end
			assert.Len(t, cart.Lines, len(before.Lines))
		}
		assert.Equal(t, cart.LinesTotal(), cart.TotalCents)
		if first == CartActionAdded {
			assert.Equal(t, before.TotalCents, cart.TotalCents)
		}
	}
}

func TestCartClear(t *testing.T) {
	now := time.Now()
	cart := NewCart("u", now)
	_, err := cart.Toggle("p", 1, 10, now)
	require.NoError(t, err)

	cart.Clear(now)
	assert.True(t, cart.IsEmpty())
	assert.Zero(t, cart.TotalCents)
}

func TestOrderFromCart(t *testing.T) {
	now := time.Now()
	cart := NewCart("u", now)
	_, _ = cart.Toggle("p1", 2, 1000, now)
	_, _ = cart.Toggle("p2", 1, 3000, now)

	order := OrderFromCart(*cart, now)

	want := []OrderLine{
		{ProductID: "p1", Quantity: 2, UnitPriceCents: 1000},
		{ProductID: "p2", Quantity: 1, UnitPriceCents: 3000},
	}
	assert.Empty(t, cmp.Diff(want, order.Lines))
	assert.Equal(t, int64(5000), order.TotalCents)
	assert.Equal(t, "u", order.UserID)
}
