package product

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	ListByCategory(ctx context.Context, categoryID int) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// GetByIDs returns the products found for ids keyed by id. Unknown ids are
	// left out of the map.
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}
