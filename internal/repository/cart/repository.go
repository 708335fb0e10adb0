package cart

import (
	"context"

	"storefront/internal/domain"
)

// Repository stores one cart per user. Writes are conditional on the cart
// version and fail with domain.ErrVersionConflict when another writer won.
type Repository interface {
	// GetByUser returns domain.ErrNotFound when the user has no cart yet.
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	// Create inserts the first cart of a user.
	Create(ctx context.Context, c domain.Cart) (*domain.Cart, error)
	// Save replaces lines and total when the stored version still equals
	// expectedVersion. The returned cart carries the new version.
	Save(ctx context.Context, c domain.Cart, expectedVersion int64) (*domain.Cart, error)
}
