package store_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"production-ledger/internal/core"
	"production-ledger/internal/db"
	"production-ledger/internal/store"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func openSQLite(t *testing.T) *store.Store {
	t.Helper()
	sqlDB, err := db.Open(ctx, store.SQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	st := store.New(sqlDB, store.SQLite)
	require.NoError(t, st.Migrate(ctx))
	return st
}

// openPostgres connects to TEST_DATABASE_URL and empties every ledger table.
func openPostgres(t *testing.T) *store.Store {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live ledger.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test to protect live database")
	}

	sqlDB, err := db.Open(ctx, store.Postgres, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	st := store.New(sqlDB, store.Postgres)
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	_, err = sqlDB.ExecContext(ctx, `
		TRUNCATE TABLE disposals, sales_order_lots, sales_orders, production_order_components, production_orders,
			purchase_order_lines, purchase_orders, bom_lines, recipes, material_lots, product_lots,
			materials, products, customers, suppliers RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}
	return st
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// seedLots creates Flour (kg) with lots dated out of insertion order.
func seedLots(t *testing.T, st *store.Store) (core.ItemRef, []core.LotRef) {
	t.Helper()
	var flour core.ItemRef
	var refs []core.LotRef
	err := st.InTx(ctx, func(tx core.Tx) error {
		it, err := tx.CreateItem(ctx, core.KindMaterial, "Flour", core.UnitKilogram)
		if err != nil {
			return err
		}
		flour = it.Ref
		for _, l := range []struct{ label, qty, date string }{
			{"late", "4", "2026-01-09"},
			{"early", "3", "2026-01-02"},
			{"empty", "0", "2026-01-01"},
		} {
			lot := &core.Lot{Item: flour, Label: l.label, Quantity: dec(l.qty), Unit: core.UnitKilogram, Date: l.date}
			if err := tx.InsertLot(ctx, lot); err != nil {
				return err
			}
			refs = append(refs, lot.Ref)
		}
		return tx.AdjustItemQuantity(ctx, flour, dec("7"))
	})
	require.NoError(t, err)
	return flour, refs
}

func TestParseDialect(t *testing.T) {
	for in, want := range map[string]store.Dialect{
		"sqlite3": store.SQLite, "sqlite": store.SQLite,
		"postgres": store.Postgres, "pgx": store.Postgres, "postgresql": store.Postgres,
	} {
		got, err := store.ParseDialect(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := store.ParseDialect("mysql")
	assert.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	st := openSQLite(t)
	require.NoError(t, st.Migrate(ctx))
	assert.Equal(t, store.SQLite, st.Dialect())
}

func TestLotsFor_OldestFirstSkippingEmpty(t *testing.T) {
	st := openSQLite(t)
	flour, refs := seedLots(t, st)

	require.NoError(t, st.InTx(ctx, func(tx core.Tx) error {
		lots, err := tx.LotsFor(ctx, flour)
		require.NoError(t, err)
		require.Len(t, lots, 2)
		assert.Equal(t, "early", lots[0].Label)
		assert.Equal(t, "2026-01-02", lots[0].Date)
		assert.Equal(t, "late", lots[1].Label)

		all, err := tx.ListLots(ctx, flour)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, refs[2], all[0].Ref)
		return nil
	}))
}

func TestAdjust_RefusesNegative(t *testing.T) {
	st := openSQLite(t)
	flour, refs := seedLots(t, st)

	err := st.InTx(ctx, func(tx core.Tx) error {
		return tx.AdjustLotQuantity(ctx, refs[1], dec("-3.0001"))
	})
	assert.ErrorIs(t, err, core.ErrNegativeQuantity)

	err = st.InTx(ctx, func(tx core.Tx) error {
		return tx.AdjustItemQuantity(ctx, flour, dec("-8"))
	})
	assert.ErrorIs(t, err, core.ErrNegativeQuantity)

	err = st.InTx(ctx, func(tx core.Tx) error {
		return tx.AdjustLotQuantity(ctx, core.LotRef{Kind: core.KindMaterial, ID: 99}, dec("1"))
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestInTx_RollsBackOnError(t *testing.T) {
	st := openSQLite(t)
	flour, refs := seedLots(t, st)
	boom := errors.New("boom")

	err := st.InTx(ctx, func(tx core.Tx) error {
		if err := tx.AdjustLotQuantity(ctx, refs[0], dec("-4")); err != nil {
			return err
		}
		if err := tx.AdjustItemQuantity(ctx, flour, dec("-4")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, st.InTx(ctx, func(tx core.Tx) error {
		lot, err := tx.GetLot(ctx, refs[0])
		require.NoError(t, err)
		assert.True(t, dec("4").Equal(lot.Quantity))
		item, err := tx.GetItem(ctx, flour)
		require.NoError(t, err)
		assert.True(t, dec("7").Equal(item.Quantity))
		return nil
	}))
}

func TestDecimalPrecisionSurvivesStorage(t *testing.T) {
	st := openSQLite(t)
	_, refs := seedLots(t, st)

	require.NoError(t, st.InTx(ctx, func(tx core.Tx) error {
		return tx.AdjustLotQuantity(ctx, refs[0], dec("0.0000001"))
	}))
	require.NoError(t, st.InTx(ctx, func(tx core.Tx) error {
		lot, err := tx.GetLot(ctx, refs[0])
		require.NoError(t, err)
		assert.Equal(t, "4.0000001", lot.Quantity.String())
		return nil
	}))
}

func TestDeleteReferencedLot_IsInUse(t *testing.T) {
	st := openSQLite(t)
	flour, refs := seedLots(t, st)

	err := st.InTx(ctx, func(tx core.Tx) error {
		d := &core.DisposalRecord{
			Reference: uuid.NewString(), Lot: refs[0], Item: flour,
			Quantity: dec("1"), Unit: core.UnitKilogram, Reason: "test", Date: "2026-01-10",
		}
		return tx.InsertDisposal(ctx, d)
	})
	require.NoError(t, err)

	err = st.InTx(ctx, func(tx core.Tx) error {
		got, err := tx.LotReferences(ctx, refs[0])
		require.NoError(t, err)
		assert.Equal(t, []string{"1 disposal(s)"}, got)
		return nil
	})
	require.NoError(t, err)

	err = st.InTx(ctx, func(tx core.Tx) error { return tx.DeleteLot(ctx, refs[0]) })
	assert.True(t, core.IsInUse(err), "foreign key violation should surface as in use: %v", err)
}

func TestRecipeRoundTrip(t *testing.T) {
	st := openSQLite(t)
	flour, _ := seedLots(t, st)

	require.NoError(t, st.InTx(ctx, func(tx core.Tx) error {
		bread, err := tx.CreateItem(ctx, core.KindProduct, "Bread", core.UnitPiece)
		require.NoError(t, err)
		starter, err := tx.CreateItem(ctx, core.KindProduct, "Starter", core.UnitGram)
		require.NoError(t, err)

		r := &core.Recipe{
			ProductID:      bread.Ref.ID,
			OutputQuantity: dec("2"),
			Lines: []core.BOMLine{
				{Component: flour, QuantityRequired: dec("4"), Unit: core.UnitKilogram},
				{Component: starter.Ref, QuantityRequired: dec("150"), Unit: core.UnitGram},
			},
		}
		require.NoError(t, tx.InsertRecipe(ctx, r))

		got, err := tx.GetRecipeByProduct(ctx, bread.Ref.ID)
		require.NoError(t, err)
		require.Len(t, got.Lines, 2)
		assert.Equal(t, flour, got.Lines[0].Component)
		assert.Equal(t, starter.Ref, got.Lines[1].Component)

		require.NoError(t, tx.DeleteRecipe(ctx, r.ID))
		_, err = tx.GetRecipeByProduct(ctx, bread.Ref.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)
		return nil
	}))
}

func TestPostgres_LedgerRoundTrip(t *testing.T) {
	st := openPostgres(t)
	flour, refs := seedLots(t, st)

	err := st.InTx(ctx, func(tx core.Tx) error {
		lots, err := tx.LotsFor(ctx, flour)
		if err != nil {
			return err
		}
		if len(lots) != 2 || lots[0].Label != "early" {
			t.Fatalf("LotsFor = %+v, want early then late", lots)
		}
		if lots[0].Date != "2026-01-02" {
			t.Fatalf("lot date = %q, want 2026-01-02", lots[0].Date)
		}
		return tx.AdjustLotQuantity(ctx, refs[0], dec("-1.5"))
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}

	err = st.InTx(ctx, func(tx core.Tx) error {
		return tx.AdjustLotQuantity(ctx, refs[0], dec("-10"))
	})
	if !errors.Is(err, core.ErrNegativeQuantity) {
		t.Fatalf("expected ErrNegativeQuantity, got %v", err)
	}

	err = st.InTx(ctx, func(tx core.Tx) error {
		_, err := tx.CreateItem(ctx, core.KindMaterial, "Flour", core.UnitKilogram)
		return err
	})
	if !core.IsValidation(err) {
		t.Fatalf("duplicate material name: expected validation error, got %v", err)
	}

	err = st.InTx(ctx, func(tx core.Tx) error {
		lot, err := tx.GetLot(ctx, refs[0])
		if err != nil {
			return err
		}
		if !lot.Quantity.Equal(dec("2.5")) {
			t.Fatalf("lot quantity = %s, want 2.5", lot.Quantity)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("GetLot: %v", err)
	}
}
