package product

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/cache"
	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

type Service struct {
	repo   productrepo.Repository
	loader *cache.Loader
}

func New(repo productrepo.Repository, loader *cache.Loader) *Service {
	return &Service{repo: repo, loader: loader}
}

// ListByCategory parses rawCategoryID and returns the category's products. A
// category without products is domain.ErrNotFound.
func (s *Service) ListByCategory(ctx context.Context, rawCategoryID string) ([]domain.Product, error) {
	id, err := strconv.Atoi(strings.TrimSpace(rawCategoryID))
	if err != nil || id < 0 || id > maxCategoryID {
		return nil, fmt.Errorf("%w: category id must be an integer", domain.ErrInvalidInput)
	}
	list, err := cache.Fetch(ctx, s.loader, cache.ProductsKey(id), func(ctx context.Context) ([]domain.Product, error) {
		return s.repo.ListByCategory(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("no product with given category id: %w", domain.ErrNotFound)
	}
	return list, nil
}

// Get returns one product. Malformed ids are reported as not found.
func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("no product with given id: %w", domain.ErrNotFound)
	}
	p, err := cache.Fetch(ctx, s.loader, cache.ProductKey(id), func(ctx context.Context) (domain.Product, error) {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return domain.Product{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert validates and stores a catalog entry. Cached reads pick the change up
// once their TTL runs out.
func (s *Service) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	p.Title = strings.TrimSpace(p.Title)
	switch {
	case p.Title == "":
		return nil, fmt.Errorf("%w: product title required", domain.ErrInvalidInput)
	case p.PriceCents < 0:
		return nil, fmt.Errorf("%w: product price must not be negative", domain.ErrInvalidInput)
	case p.CategoryID < 0 || p.CategoryID > maxCategoryID:
		return nil, fmt.Errorf("%w: category id out of range", domain.ErrInvalidInput)
	}
	if p.ID != "" {
		if _, err := uuid.Parse(p.ID); err != nil {
			return nil, fmt.Errorf("%w: product id must be a uuid", domain.ErrInvalidInput)
		}
	}
	return s.repo.Upsert(ctx, p)
}

const maxCategoryID = 32767
