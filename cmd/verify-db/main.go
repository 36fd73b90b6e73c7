// verify-db checks that every item aggregate equals the sum of its lots.
// It exits non-zero when any item is out of balance, so it can gate deploys
// and scheduled jobs.
//
// Usage: go run ./cmd/verify-db
package main

import (
	"context"
	"os"
	"time"

	"production-ledger/internal/app"
	"production-ledger/internal/config"
	"production-ledger/internal/db"
	"production-ledger/internal/store"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("[CONFIG] invalid configuration")
	}
	cfg.SetupLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sqlDB, err := db.Open(ctx, cfg.Dialect(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("[CONNECT] failed")
	}
	defer sqlDB.Close()
	log.Info().Str("driver", cfg.DatabaseDriver).Msg("[CONNECT] success")

	svc, err := app.New(store.New(sqlDB, cfg.Dialect()), cfg.Policy())
	if err != nil {
		log.Fatal().Err(err).Msg("[SETUP] failed")
	}
	if err := svc.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("[MIGRATE] failed")
	}

	res, err := svc.Reconcile(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("[RECONCILE] failed")
	}
	for _, d := range res.Discrepancies {
		log.Error().
			Str("item", d.Item.Ref.String()).
			Str("name", d.Item.Name).
			Str("aggregate", d.Aggregate.String()).
			Str("lot_total", d.LotTotal.String()).
			Str("unit", string(d.Item.Unit)).
			Msg("[RECONCILE] out of balance")
	}
	if len(res.Discrepancies) > 0 {
		log.Error().Int("items", res.Items).Int("out_of_balance", len(res.Discrepancies)).Msg("[DONE] ledger does not reconcile")
		sqlDB.Close()
		os.Exit(1)
	}
	log.Info().Int("items", res.Items).Msg("[DONE] ledger reconciles")
}
