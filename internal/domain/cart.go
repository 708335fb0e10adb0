package domain

import (
	"fmt"
	"math"
	"time"
)

// CartAction reports what a toggle did to the cart.
type CartAction string

const (
	CartActionAdded   CartAction = "added"
	CartActionRemoved CartAction = "removed"
)

// Cart is the single active cart of a user. Version is bumped on every
// persisted mutation and guards conditional writes.
type Cart struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Lines      []CartLine `json:"lineItems"`
	TotalCents int64      `json:"totalCents"`
	Version    int64      `json:"-"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type CartLine struct {
	ProductID      string    `json:"productId"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	AddedAt        time.Time `json:"addedAt"`
}

// TotalCents is the line amount at the price recorded when it was added.
func (l CartLine) TotalCents() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

// NewCart returns an empty, unsaved cart for userID.
func NewCart(userID string, now time.Time) *Cart {
	return &Cart{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Toggle removes the line for productID when the cart already holds one and
// appends a new line otherwise. A removal subtracts the amount recorded on the
// line, so TotalCents always equals the sum over the remaining lines.
func (c *Cart) Toggle(productID string, quantity int, unitPriceCents int64, now time.Time) (CartAction, error) {
	if productID == "" {
		return "", fmt.Errorf("%w: productId required", ErrInvalidInput)
	}
	if quantity <= 0 {
		return "", fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if unitPriceCents < 0 {
		return "", fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}

	if idx := c.lineIndex(productID); idx >= 0 {
		next := c.TotalCents - c.Lines[idx].TotalCents()
		if next < 0 {
			return "", ErrNegativeTotal
		}
		// three-index slice forces a copy so callers holding the old slice keep it intact
		c.Lines = append(c.Lines[:idx:idx], c.Lines[idx+1:]...)
		c.TotalCents = next
		c.UpdatedAt = now
		return CartActionRemoved, nil
	}

	if unitPriceCents > 0 && int64(quantity) > math.MaxInt64/unitPriceCents {
		return "", fmt.Errorf("%w: line amount out of range", ErrInvalidInput)
	}
	amount := unitPriceCents * int64(quantity)
	if c.TotalCents > math.MaxInt64-amount {
		return "", fmt.Errorf("%w: cart total out of range", ErrInvalidInput)
	}
	lines := make([]CartLine, len(c.Lines), len(c.Lines)+1)
	copy(lines, c.Lines)
	c.Lines = append(lines, CartLine{
		ProductID:      productID,
		Quantity:       quantity,
		UnitPriceCents: unitPriceCents,
		AddedAt:        now,
	})
	c.TotalCents += amount
	c.UpdatedAt = now
	return CartActionAdded, nil
}

// Clear drops every line and resets the total.
func (c *Cart) Clear(now time.Time) {
	c.Lines = nil
	c.TotalCents = 0
	c.UpdatedAt = now
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

// LinesTotal recomputes the total from the lines.
func (c *Cart) LinesTotal() int64 {
	var sum int64
	for _, l := range c.Lines {
		sum += l.TotalCents()
	}
	return sum
}

// Clone returns a deep copy.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	if c.Lines != nil {
		out.Lines = make([]CartLine, len(c.Lines))
		copy(out.Lines, c.Lines)
	}
	return &out
}

func (c *Cart) lineIndex(productID string) int {
	for i, l := range c.Lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}
