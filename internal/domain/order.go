package domain

import "time"

// Order is an immutable snapshot of a cart taken at checkout.
type Order struct {
	ID         string      `json:"id"`
	UserID     string      `json:"userId"`
	Lines      []OrderLine `json:"lineItems"`
	TotalCents int64       `json:"totalCents"`
	CreatedAt  time.Time   `json:"createdAt"`
}

type OrderLine struct {
	ProductID      string `json:"productId"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

// OrderFromCart snapshots the cart lines. The caller is responsible for
// rejecting empty carts.
func OrderFromCart(c Cart, now time.Time) Order {
	lines := make([]OrderLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, OrderLine{
			ProductID:      l.ProductID,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
		})
	}
	return Order{
		UserID:     c.UserID,
		Lines:      lines,
		TotalCents: c.TotalCents,
		CreatedAt:  now,
	}
}
