// Package cache provides the optional read-through cache in front of catalog
// reads.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"storefront/internal/metrics"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache stores JSON-encodable values by key.
type Cache interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, v any) error
}

// Noop never stores anything. It is used when no Redis address is configured.
type Noop struct{}

func (Noop) Get(context.Context, string, any) error { return ErrCacheMiss }
func (Noop) Set(context.Context, string, any) error { return nil }

func CategoriesKey() string             { return "catalog:categories" }
func ProductsKey(categoryID int) string { return fmt.Sprintf("catalog:category:%d:products", categoryID) }
func ProductKey(id string) string       { return "catalog:product:" + id }

// Loader coalesces concurrent misses for the same key into one load.
type Loader struct {
	cache   Cache
	group   singleflight.Group
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewLoader(c Cache, logger zerolog.Logger, m *metrics.Metrics) *Loader {
	if c == nil {
		c = Noop{}
	}
	return &Loader{cache: c, logger: logger, metrics: m}
}

// Fetch returns the cached value for key or calls load and stores its result.
// Cache failures are logged and never fail the read.
func Fetch[T any](ctx context.Context, l *Loader, key string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	err := l.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		l.metrics.CacheLookup("hit")
		return cached, nil
	case errors.Is(err, ErrCacheMiss):
		l.metrics.CacheLookup("miss")
	default:
		l.metrics.CacheLookup("error")
		l.logger.Warn().Err(err).Str("key", key).Msg("cache get")
	}

	// The shared load outlives any single caller; each caller still stops
	// waiting when its own context ends.
	ch := l.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()
		val, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if err := l.cache.Set(loadCtx, key, val); err != nil {
			l.logger.Warn().Err(err).Str("key", key).Msg("cache set")
		}
		return val, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// sharedLoadTimeout bounds a coalesced load once it no longer follows the
// caller that started it.
const sharedLoadTimeout = 10 * time.Second
