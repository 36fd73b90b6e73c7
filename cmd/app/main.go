package main

import (
	"bufio"
	"context"
	"os"

	"production-ledger/internal/adapters/cli"
	"production-ledger/internal/adapters/repl"
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
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	cfg.SetupLogger()

	ctx := context.Background()
	sqlDB, err := db.Open(ctx, cfg.Dialect(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("unable to connect to database")
	}
	defer sqlDB.Close()

	svc, err := app.New(store.New(sqlDB, cfg.Dialect()), cfg.Policy())
	if err != nil {
		sqlDB.Close()
		log.Fatal().Err(err).Msg("unable to start application")
	}
	if err := svc.Migrate(ctx); err != nil {
		sqlDB.Close()
		log.Fatal().Err(err).Msg("migration failed")
	}

	log.Debug().Str("policy", string(svc.Policy())).Msg("ledger ready")
	if len(os.Args) > 1 {
		if err := cli.Run(ctx, svc, os.Args[1:]); err != nil {
			sqlDB.Close()
			log.Fatal().Err(err).Msg("command failed")
		}
		return
	}
	repl.Run(ctx, svc, bufio.NewReader(os.Stdin))
}
