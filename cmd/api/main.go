package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/repository"
	cartrepo "storefront/internal/repository/cart"
	categoryrepo "storefront/internal/repository/category"
	"storefront/internal/repository/memory"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"
	userrepo "storefront/internal/repository/user"
	"storefront/internal/retry"
	"storefront/internal/seed"
	cartsvc "storefront/internal/service/cart"
	categorysvc "storefront/internal/service/category"
	ordersvc "storefront/internal/service/order"
	productsvc "storefront/internal/service/product"
	usersvc "storefront/internal/service/user"
)

type txRunner interface {
	Run(ctx context.Context, fn func(carts cartrepo.Repository, orders orderrepo.Repository) error) error
}

// stores is the set of repositories one store driver provides.
type stores struct {
	users      userrepo.Repository
	categories categoryrepo.Repository
	products   productrepo.Repository
	carts      cartrepo.Repository
	orders     orderrepo.Repository
	tx         txRunner
	pinger     httpserver.Pinger
	close      func()
}

func main() {
	cfg, err := config.Load()
	logger := logging.New(cfg.AppEnv, cfg.LogLevel, "api")
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("open store")
	}
	defer st.close()

	m := metrics.New()
	catalogCache, closeCache := openCache(ctx, cfg, logger)
	defer closeCache()
	loader := cache.NewLoader(catalogCache, logger, m)

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("init token manager")
	}
	policy := retry.DefaultPolicy(cfg.CartRetryAttempts, m)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		CategorySvc: categorysvc.New(st.categories, loader),
		ProductSvc:  productsvc.New(st.products, loader),
		CartSvc:     cartsvc.New(st.carts, st.products, policy, m, logger),
		UserSvc:     usersvc.New(st.users, tokens, logger),
		OrderSvc:    ordersvc.New(st.tx, st.orders, st.products, st.users, policy, m, logger),
		Tokens:      tokens,
		Stores:      []httpserver.Pinger{st.pinger},
		Metrics:     m,
		CORSOrigins: cfg.CORSAllowedOrigins,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init server")
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		logger.Info().Msg("server stopped")
	}
}

func openStores(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store := memory.NewStore()
		res, err := seed.Apply(ctx, store.Categories(), store.Products())
		if err != nil {
			return nil, err
		}
		logger.Warn().Int("categories", res.Categories).Int("products", res.Products).
			Msg("using in-memory store with demo catalog; data is lost on exit")
		return &stores{
			users:      store.Users(),
			categories: store.Categories(),
			products:   store.Products(),
			carts:      store.Carts(),
			orders:     store.Orders(),
			tx:         store,
			pinger:     store,
			close:      func() {},
		}, nil
	default:
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, err
		}
		return &stores{
			users:      userrepo.NewPostgres(pool, logger),
			categories: categoryrepo.NewPostgres(pool),
			products:   productrepo.NewPostgres(pool, logger),
			carts:      cartrepo.NewPostgres(pool, logger),
			orders:     orderrepo.NewPostgres(pool, logger),
			tx:         repository.NewTxRunner(pool, logger),
			pinger:     pool,
			close:      pool.Close,
		}, nil
	}
}

// openCache returns the Redis catalog cache when REDIS_ADDR is set. An
// unreachable Redis is logged and tolerated; reads fall through to the store.
func openCache(ctx context.Context, cfg config.Config, logger zerolog.Logger) (cache.Cache, func()) {
	if cfg.RedisAddr == "" {
		return cache.Noop{}, func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	rc := cache.NewRedisCache(client, cfg.CacheTTL)
	if err := rc.Ping(ctx); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis not reachable, catalog cache degraded")
	}
	return rc, func() { _ = client.Close() }
}
