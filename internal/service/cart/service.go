package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/metrics"
	"storefront/internal/retry"
)

// MaxQuantity caps a single line.
const MaxQuantity = 999

type cartRepo interface {
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	Create(ctx context.Context, c domain.Cart) (*domain.Cart, error)
	Save(ctx context.Context, c domain.Cart, expectedVersion int64) (*domain.Cart, error)
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

type Service struct {
	repo        cartRepo
	productRepo productRepo
	retry       retry.Policy
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	now         func() time.Time
}

func New(repo cartRepo, products productRepo, policy retry.Policy, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		productRepo: products,
		retry:       policy,
		metrics:     m,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ToggleInput is one addToCart request. Price is optional; the catalog price
// is used when it is nil.
type ToggleInput struct {
	ProductID string
	Quantity  int
	Price     *decimal.Decimal
}

type ToggleResult struct {
	Action     domain.CartAction
	TotalCents int64
}

// Message renders the confirmation text, e.g. "Item added. Cart Total 20.00".
func (r ToggleResult) Message() string {
	return fmt.Sprintf("Item %s. Cart Total %s", r.Action, domain.FormatCents(r.TotalCents))
}

// CartView is a cart with its lines joined to catalog products.
type CartView struct {
	Cart  domain.Cart
	Items []domain.ResolvedLine
}

// ToggleItem adds the product to the user's cart, or removes its line when the
// cart already holds one. The first toggle of a user creates the cart.
func (s *Service) ToggleItem(ctx context.Context, userID string, in ToggleInput) (*ToggleResult, error) {
	if _, err := uuid.Parse(in.ProductID); err != nil {
		return nil, fmt.Errorf("%w: productId must be a valid id", domain.ErrInvalidInput)
	}
	if in.Quantity < 1 || in.Quantity > MaxQuantity {
		return nil, fmt.Errorf("%w: quantity must be between 1 and %d", domain.ErrInvalidInput, MaxQuantity)
	}
	product, err := s.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	unit := product.PriceCents
	if in.Price != nil {
		if unit, err = domain.CentsFromDecimal(*in.Price); err != nil {
			return nil, err
		}
	}

	var res ToggleResult
	err = s.retry.OnConflict(ctx, "toggle_item", func() error {
		now := s.now()
		current, err := s.repo.GetByUser(ctx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			fresh := domain.NewCart(userID, now)
			action, err := fresh.Toggle(in.ProductID, in.Quantity, unit, now)
			if err != nil {
				return err
			}
			created, err := s.repo.Create(ctx, *fresh)
			if err != nil {
				return err
			}
			res = ToggleResult{Action: action, TotalCents: created.TotalCents}
			return nil
		}
		if err != nil {
			return err
		}

		next := current.Clone()
		action, err := next.Toggle(in.ProductID, in.Quantity, unit, now)
		if err != nil {
			return err
		}
		saved, err := s.repo.Save(ctx, *next, current.Version)
		if err != nil {
			return err
		}
		res = ToggleResult{Action: action, TotalCents: saved.TotalCents}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNegativeTotal) {
			s.logger.Error().Str("user_id", userID).Str("product_id", in.ProductID).Msg("cart total would become negative")
		}
		return nil, err
	}
	s.metrics.CartMutation(string(res.Action))
	return &res, nil
}

// GetCart returns the user's cart with resolved products. A missing or empty
// cart is domain.ErrEmptyCart.
func (s *Service) GetCart(ctx context.Context, userID string) (*CartView, error) {
	c, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEmptyCart
		}
		return nil, err
	}
	if c.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}
	products, err := s.productRepo.GetByIDs(ctx, domain.ProductIDsOfCart(c.Lines))
	if err != nil {
		return nil, err
	}
	return &CartView{Cart: *c, Items: domain.ResolveCartLines(c.Lines, products)}, nil
}

// ClearCart empties the user's cart. Clearing a missing or empty cart is a
// no-op.
func (s *Service) ClearCart(ctx context.Context, userID string) error {
	return s.retry.OnConflict(ctx, "clear_cart", func() error {
		current, err := s.repo.GetByUser(ctx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if current.IsEmpty() && current.TotalCents == 0 {
			return nil
		}
		next := current.Clone()
		next.Clear(s.now())
		_, err = s.repo.Save(ctx, *next, current.Version)
		return err
	})
}
