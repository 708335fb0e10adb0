// Package memory implements every repository on process memory. Carts follow
// the same versioned compare-and-swap rules as the Postgres store, and Run
// gives all-or-nothing semantics for cart and order writes.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
	"storefront/internal/repository/cart"
	"storefront/internal/repository/category"
	"storefront/internal/repository/order"
	"storefront/internal/repository/product"
	"storefront/internal/repository/user"
)

type data struct {
	users      map[string]domain.User
	emails     map[string]string
	categories map[int]domain.Category
	products   map[string]domain.Product
	carts      map[string]domain.Cart // by user id
	orders     map[string]domain.Order
}

func (d *data) clone() *data {
	out := &data{
		users:      make(map[string]domain.User, len(d.users)),
		emails:     make(map[string]string, len(d.emails)),
		categories: make(map[int]domain.Category, len(d.categories)),
		products:   make(map[string]domain.Product, len(d.products)),
		carts:      make(map[string]domain.Cart, len(d.carts)),
		orders:     make(map[string]domain.Order, len(d.orders)),
	}
	for k, v := range d.users {
		out.users[k] = v
	}
	for k, v := range d.emails {
		out.emails[k] = v
	}
	for k, v := range d.categories {
		out.categories[k] = v
	}
	for k, v := range d.products {
		out.products[k] = v
	}
	for k, v := range d.carts {
		out.carts[k] = v
	}
	for k, v := range d.orders {
		out.orders[k] = v
	}
	return out
}

// Store owns the state shared by the repositories it hands out.
type Store struct {
	mu   sync.Mutex
	data *data
}

func NewStore() *Store {
	return &Store{data: &data{
		users:      map[string]domain.User{},
		emails:     map[string]string{},
		categories: map[int]domain.Category{},
		products:   map[string]domain.Product{},
		carts:      map[string]domain.Cart{},
		orders:     map[string]domain.Order{},
	}}
}

func (s *Store) Users() user.Repository          { return userRepo{view{s: s}} }
func (s *Store) Categories() category.Repository { return categoryRepo{view{s: s}} }
func (s *Store) Products() product.Repository    { return productRepo{view{s: s}} }
func (s *Store) Carts() cart.Repository          { return cartRepo{view{s: s}} }
func (s *Store) Orders() order.Repository        { return orderRepo{view{s: s}} }

// Ping always succeeds; it lets the store back the readiness check.
func (s *Store) Ping(context.Context) error { return nil }

// Run executes fn against a private copy of the state while holding the store
// lock. The copy replaces the state only when fn returns nil.
func (s *Store) Run(ctx context.Context, fn func(carts cart.Repository, orders order.Repository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.data.clone()
	v := view{s: s, tx: staged}
	if err := fn(cartRepo{v}, orderRepo{v}); err != nil {
		return err
	}
	s.data = staged
	return nil
}

// view routes repository calls either to the locked live state or to a staged
// copy owned by a running transaction.
type view struct {
	s  *Store
	tx *data
}

func (v view) do(ctx context.Context, fn func(d *data) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.data)
}

func newID() string {
	return uuid.NewString()
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

type userRepo struct{ view }

func (r userRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	var out domain.User
	err := r.do(ctx, func(d *data) error {
		key := strings.ToLower(u.Email)
		if _, taken := d.emails[key]; taken {
			return domain.ErrAlreadyExists
		}
		out = u
		out.ID = newID()
		out.Email = key
		d.users[out.ID] = out
		d.emails[key] = out.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var out domain.User
	err := r.do(ctx, func(d *data) error {
		id, ok := d.emails[strings.ToLower(email)]
		if !ok {
			return domain.ErrNotFound
		}
		out = d.users[id]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var out domain.User
	err := r.do(ctx, func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type categoryRepo struct{ view }

func (r categoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.do(ctx, func(d *data) error {
		for _, c := range d.categories {
			out = append(out, c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r categoryRepo) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	err := r.do(ctx, func(d *data) error {
		for id, existing := range d.categories {
			if id != c.ID && existing.Type == c.Type {
				return domain.ErrAlreadyExists
			}
		}
		d.categories[c.ID] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type productRepo struct{ view }

func (r productRepo) ListByCategory(ctx context.Context, categoryID int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.do(ctx, func(d *data) error {
		for _, p := range d.products {
			if p.CategoryID == categoryID {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r productRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var out domain.Product
	err := r.do(ctx, func(d *data) error {
		p, ok := d.products[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r productRepo) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	err := r.do(ctx, func(d *data) error {
		for _, id := range ids {
			if p, ok := d.products[id]; ok {
				out[id] = p
			}
		}
		return nil
	})
	return out, err
}

func (r productRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	err := r.do(ctx, func(d *data) error {
		if p.ID == "" {
			p.ID = newID()
		} else if !validID(p.ID) {
			return domain.ErrInvalidInput
		}
		if _, ok := d.categories[p.CategoryID]; !ok {
			return domain.ErrInvalidInput
		}
		if existing, ok := d.products[p.ID]; ok {
			p.CreatedAt = existing.CreatedAt
		} else if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		d.products[p.ID] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type cartRepo struct{ view }

func (r cartRepo) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	var out *domain.Cart
	err := r.do(ctx, func(d *data) error {
		c, ok := d.carts[userID]
		if !ok {
			return domain.ErrNotFound
		}
		out = c.Clone()
		return nil
	})
	return out, err
}

func (r cartRepo) Create(ctx context.Context, c domain.Cart) (*domain.Cart, error) {
	var out *domain.Cart
	err := r.do(ctx, func(d *data) error {
		if _, exists := d.carts[c.UserID]; exists {
			return domain.ErrVersionConflict
		}
		stored := c.Clone()
		stored.ID = newID()
		stored.Version = 1
		d.carts[c.UserID] = *stored
		out = stored.Clone()
		return nil
	})
	return out, err
}

func (r cartRepo) Save(ctx context.Context, c domain.Cart, expectedVersion int64) (*domain.Cart, error) {
	var out *domain.Cart
	err := r.do(ctx, func(d *data) error {
		current, ok := d.carts[c.UserID]
		if !ok || current.ID != c.ID || current.Version != expectedVersion {
			return domain.ErrVersionConflict
		}
		if c.TotalCents < 0 {
			return domain.ErrNegativeTotal
		}
		stored := c.Clone()
		stored.Version = expectedVersion + 1
		stored.CreatedAt = current.CreatedAt
		d.carts[c.UserID] = *stored
		out = stored.Clone()
		return nil
	})
	return out, err
}

type orderRepo struct{ view }

func (r orderRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	err := r.do(ctx, func(d *data) error {
		o.ID = newID()
		o.Lines = append([]domain.OrderLine(nil), o.Lines...)
		d.orders[o.ID] = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r orderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	out := []domain.Order{}
	err := r.do(ctx, func(d *data) error {
		for _, o := range d.orders {
			if o.UserID == userID {
				out = append(out, o)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, err
}

func (r orderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var out domain.Order
	err := r.do(ctx, func(d *data) error {
		o, ok := d.orders[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
