package main

import (
	"context"
	"os"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logging"
	categoryrepo "storefront/internal/repository/category"
	productrepo "storefront/internal/repository/product"
	"storefront/internal/seed"
	categorysvc "storefront/internal/service/category"
	productsvc "storefront/internal/service/product"
)

func main() {
	cfg, err := config.Load()
	logger := logging.New(cfg.AppEnv, cfg.LogLevel, "seed")
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	loader := cache.NewLoader(nil, logger, nil)
	categories := categorysvc.New(categoryrepo.NewPostgres(pool), loader)
	products := productsvc.New(productrepo.NewPostgres(pool, logger), loader)

	res, err := seed.Apply(ctx, categories, products)
	if err != nil {
		logger.Error().Err(err).Msg("seed apply")
		pool.Close()
		os.Exit(1)
	}
	logger.Info().Int("categories", res.Categories).Int("products", res.Products).Msg("seed applied")
}
