package order

import (
	"context"

	"storefront/internal/domain"
)

// Repository stores immutable orders.
type Repository interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	// ListByUser returns the user's orders newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}
