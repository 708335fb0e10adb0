package category

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/cache"
	"storefront/internal/domain"
	"storefront/internal/repository/category"
)

type Service struct {
	repo   category.Repository
	loader *cache.Loader
}

func New(repo category.Repository, loader *cache.Loader) *Service {
	return &Service{repo: repo, loader: loader}
}

// List returns every category ordered by id.
func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	return cache.Fetch(ctx, s.loader, cache.CategoriesKey(), s.repo.List)
}

func (s *Service) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	c.Type = strings.TrimSpace(c.Type)
	if c.Type == "" {
		return nil, fmt.Errorf("%w: category type required", domain.ErrInvalidInput)
	}
	if c.ID < 0 || c.ID > 32767 {
		return nil, fmt.Errorf("%w: category id out of range", domain.ErrInvalidInput)
	}
	return s.repo.Upsert(ctx, c)
}
