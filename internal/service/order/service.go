package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront/internal/domain"
	"storefront/internal/metrics"
	cartrepo "storefront/internal/repository/cart"
	orderrepo "storefront/internal/repository/order"
	"storefront/internal/retry"
)

// txRunner runs fn in one store transaction spanning carts and orders.
type txRunner interface {
	Run(ctx context.Context, fn func(carts cartrepo.Repository, orders orderrepo.Repository) error) error
}

type orderReader interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}

type productReader interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

type userReader interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type Service struct {
	tx       txRunner
	orders   orderReader
	products productReader
	users    userReader
	retry    retry.Policy
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

func New(tx txRunner, orders orderReader, products productReader, users userReader, policy retry.Policy, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		tx:       tx,
		orders:   orders,
		products: products,
		users:    users,
		retry:    policy,
		metrics:  m,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Details is an order joined with its products and owner.
type Details struct {
	Order domain.Order
	Items []domain.ResolvedLine
	User  domain.User
}

// PlaceOrder turns the user's cart into an order and empties the cart in one
// transaction. The cart write is conditional on the version read, so a cart
// snapshot yields at most one order.
func (s *Service) PlaceOrder(ctx context.Context, userID string) (*domain.Order, error) {
	var placed *domain.Order
	err := s.retry.OnConflict(ctx, "place_order", func() error {
		return s.tx.Run(ctx, func(carts cartrepo.Repository, orders orderrepo.Repository) error {
			c, err := carts.GetByUser(ctx, userID)
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrEmptyCart
			}
			if err != nil {
				return err
			}
			if c.IsEmpty() {
				return domain.ErrEmptyCart
			}

			now := s.now()
			snapshot := domain.OrderFromCart(*c, now)
			cleared := c.Clone()
			cleared.Clear(now)
			if _, err := carts.Save(ctx, *cleared, c.Version); err != nil {
				return err
			}
			created, err := orders.Create(ctx, snapshot)
			if err != nil {
				return err
			}
			placed = created
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.OrderPlaced()
	s.logger.Info().Str("user_id", userID).Str("order_id", placed.ID).Int64("total_cents", placed.TotalCents).Msg("order placed")
	return placed, nil
}

// GetOrderHistory returns the user's orders newest first.
func (s *Service) GetOrderHistory(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// GetOrderDetails returns one order of userID. Malformed ids, unknown ids and
// orders of other users are all domain.ErrNotFound.
func (s *Service) GetOrderDetails(ctx context.Context, userID, orderID string) (*Details, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, fmt.Errorf("order: %w", domain.ErrNotFound)
	}
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, fmt.Errorf("order: %w", domain.ErrNotFound)
	}
	products, err := s.products.GetByIDs(ctx, domain.ProductIDsOfOrder(o.Lines))
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, o.UserID)
	if err != nil {
		return nil, err
	}
	return &Details{Order: *o, Items: domain.ResolveOrderLines(o.Lines, products), User: *u}, nil
}

// Confirmation renders the checkout message for o.
func Confirmation(o domain.Order) string {
	return "Your order has been placed and items have been removed from the cart. Your total amount was " + domain.FormatCents(o.TotalCents)
}
