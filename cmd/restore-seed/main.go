// restore-seed loads the bakery demo data into an empty ledger: one supplier,
// one customer, Flour received in two lots and a Bread recipe.
// It refuses to run against a ledger that already holds materials.
//
// Usage: go run ./cmd/restore-seed
package main

import (
	"context"

	"production-ledger/internal/app"
	"production-ledger/internal/config"
	"production-ledger/internal/core"
	"production-ledger/internal/db"
	"production-ledger/internal/store"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
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
		log.Fatal().Err(err).Msg("failed to connect")
	}
	defer sqlDB.Close()

	svc, err := app.New(store.New(sqlDB, cfg.Dialect()), cfg.Policy())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start application")
	}
	if err := svc.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	existing, err := svc.ListItems(ctx, "material")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list materials")
	}
	if len(existing.Items) > 0 {
		log.Fatal().Int("materials", len(existing.Items)).Msg("ledger is not empty, nothing restored")
	}

	if err := seed(ctx, svc); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().Msg("seed data restored")
}

func seed(ctx context.Context, svc app.ApplicationService) error {
	log.Info().Msg("creating parties...")
	supplier, err := svc.CreateParty(ctx, core.PartySupplier, app.CreatePartyRequest{
		Name:         "Mill & Co",
		ContactEmail: "orders@mill.example",
	})
	if err != nil {
		return err
	}
	if _, err := svc.CreateParty(ctx, core.PartyCustomer, app.CreatePartyRequest{Name: "Corner Shop"}); err != nil {
		return err
	}

	log.Info().Msg("creating items...")
	flour, err := svc.CreateItem(ctx, app.CreateItemRequest{Kind: "material", Name: "Flour", Unit: "kg"})
	if err != nil {
		return err
	}
	bread, err := svc.CreateItem(ctx, app.CreateItemRequest{Kind: "product", Name: "Bread", Unit: "stk"})
	if err != nil {
		return err
	}

	log.Info().Msg("receiving flour...")
	if _, err := svc.Purchase(ctx, app.PurchaseRequest{
		SupplierID: supplier.ID,
		Lines: []app.PurchaseLineInput{
			{MaterialID: flour.Ref.ID, BatchLabel: "FL-1", Quantity: decimal.NewFromInt(10), Unit: "kg"},
			{MaterialID: flour.Ref.ID, BatchLabel: "FL-2", Quantity: decimal.NewFromInt(5000), Unit: "g"},
		},
	}); err != nil {
		return err
	}

	log.Info().Msg("saving bread recipe...")
	_, err = svc.SaveRecipe(ctx, app.SaveRecipeRequest{
		ProductID:      bread.Ref.ID,
		Method:         "Mix, prove, bake.",
		OutputQuantity: decimal.NewFromInt(2),
		Lines: []app.RecipeLineRequest{
			{Kind: "material", ItemID: flour.Ref.ID, Quantity: decimal.NewFromInt(4), Unit: "kg"},
		},
	})
	return err
}
