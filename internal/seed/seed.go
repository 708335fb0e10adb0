package seed

import (
	"context"
	"fmt"

	"storefront/internal/domain"
)

type CategoryWriter interface {
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

// Categories is the storefront's fixed category list; ids follow list order.
var Categories = []string{
	"Electronics", "SkinCare", "Personal", "Games", "Makeup", "Furniture",
	"Grocerries", "Home Decor", "Fashion", "Cleaning", "Health",
}

type productSeed struct {
	ID          string
	Title       string
	Description string
	PriceCents  int64
	CategoryID  int
}

// Fixed ids keep repeated runs idempotent.
var products = []productSeed{
	{
		ID:          "0b6f1c2e-5d0a-4c8e-9a57-3f1e6f0a1001",
		Title:       "Wireless Earbuds",
		Description: "Bluetooth earbuds with charging case",
		PriceCents:  4999,
		CategoryID:  0,
	},
	{
		ID:          "0b6f1c2e-5d0a-4c8e-9a57-3f1e6f0a1002",
		Title:       "Hydrating Face Cream",
		Description: "Daily moisturiser for dry skin",
		PriceCents:  1850,
		CategoryID:  1,
	},
	{
		ID:          "0b6f1c2e-5d0a-4c8e-9a57-3f1e6f0a1003",
		Title:       "Strategy Board Game",
		Description: "Two to four players, ages 10 and up",
		PriceCents:  3500,
		CategoryID:  3,
	},
	{
		ID:          "0b6f1c2e-5d0a-4c8e-9a57-3f1e6f0a1004",
		Title:       "Oak Side Table",
		Description: "Solid oak, 45cm high",
		PriceCents:  12900,
		CategoryID:  5,
	},
	{
		ID:          "0b6f1c2e-5d0a-4c8e-9a57-3f1e6f0a1005",
		Title:       "Ceramic Vase",
		Description: "Hand glazed, white",
		PriceCents:  2200,
		CategoryID:  7,
	},
}

// Result counts what Apply wrote.
type Result struct {
	Categories int
	Products   int
}

// Apply upserts the category list and a handful of demo products. It is
// idempotent.
func Apply(ctx context.Context, categories CategoryWriter, catalog ProductWriter) (Result, error) {
	var res Result
	for id, name := range Categories {
		if _, err := categories.Upsert(ctx, domain.Category{ID: id, Type: name}); err != nil {
			return res, fmt.Errorf("upsert category %q: %w", name, err)
		}
		res.Categories++
	}

	for _, p := range products {
		_, err := catalog.Upsert(ctx, domain.Product{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			PriceCents:  p.PriceCents,
			Available:   true,
			CategoryID:  p.CategoryID,
		})
		if err != nil {
			return res, fmt.Errorf("upsert product %q: %w", p.Title, err)
		}
		res.Products++
	}
	return res, nil
}
