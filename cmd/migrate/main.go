package main

import (
	"context"
	"flag"
	"os"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logging"
	"storefront/internal/migrate"
)

func main() {
	down := flag.Int("down", 0, "roll back this many migrations instead of applying")
	flag.Parse()

	cfg, err := config.Load()
	logger := logging.New(cfg.AppEnv, cfg.LogLevel, "migrate")
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	if *down > 0 {
		err = migrate.Rollback(ctx, pool, *down)
	} else {
		err = migrate.Apply(ctx, pool)
	}
	if err != nil {
		logger.Error().Err(err).Msg("migration failed")
		pool.Close()
		os.Exit(1)
	}

	version, dirty, err := migrate.Version(ctx, pool)
	if err != nil {
		logger.Warn().Err(err).Msg("read schema version")
		return
	}
	logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("migrations applied")
}
