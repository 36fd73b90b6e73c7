package app_test

import (
	"context"
	"testing"

	"production-ledger/internal/app"
	"production-ledger/internal/core"
	"production-ledger/internal/db"
	"production-ledger/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func newApp(t *testing.T, policy core.AllocationPolicy) app.ApplicationService {
	t.Helper()
	sqlDB, err := db.Open(ctx, store.SQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	svc, err := app.New(store.New(sqlDB, store.SQLite), policy)
	require.NoError(t, err)
	require.NoError(t, svc.Migrate(ctx))
	return svc
}

func TestApp_BakeryFlow(t *testing.T) {
	svc := newApp(t, core.PolicyGreedy)

	supplier, err := svc.CreateParty(ctx, core.PartySupplier, app.CreatePartyRequest{Name: "Mill"})
	require.NoError(t, err)
	customer, err := svc.CreateParty(ctx, core.PartyCustomer, app.CreatePartyRequest{Name: "Shop"})
	require.NoError(t, err)
	flour, err := svc.CreateItem(ctx, app.CreateItemRequest{Kind: "material", Name: "Flour", Unit: "KG"})
	require.NoError(t, err)
	bread, err := svc.CreateItem(ctx, app.CreateItemRequest{Kind: "prod", Name: "Bread", Unit: "stk"})
	require.NoError(t, err)

	_, err = svc.Purchase(ctx, app.PurchaseRequest{
		SupplierID: supplier.ID,
		Date:       "2026-01-05",
		Lines: []app.PurchaseLineInput{
			{MaterialID: flour.Ref.ID, BatchLabel: "FL-1", Quantity: decimal.NewFromInt(10), Unit: "kg"},
		},
	})
	require.NoError(t, err)

	_, err = svc.SaveRecipe(ctx, app.SaveRecipeRequest{
		ProductID:      bread.Ref.ID,
		OutputQuantity: decimal.NewFromInt(2),
		Lines: []app.RecipeLineRequest{
			{Kind: "material", ItemID: flour.Ref.ID, Quantity: decimal.NewFromInt(4000), Unit: "g"},
		},
	})
	require.NoError(t, err)

	plan, err := svc.PlanProduction(ctx, app.ProduceRequest{ProductID: bread.Ref.ID, Quantity: decimal.NewFromInt(4), BatchLabel: "BR-1"})
	require.NoError(t, err)
	assert.Equal(t, core.StateValidating, plan.State)

	order, err := svc.Produce(ctx, app.ProduceRequest{
		ProductID:  bread.Ref.ID,
		Quantity:   decimal.NewFromInt(4),
		BatchLabel: "BR-1",
		Date:       "2026-01-06",
	})
	require.NoError(t, err)

	_, err = svc.Sell(ctx, app.SellRequest{
		CustomerID: customer.ID,
		ProductID:  bread.Ref.ID,
		Quantity:   decimal.NewFromInt(1),
		Unit:       "stk",
		Status:     "pending",
	})
	require.NoError(t, err)

	lots, err := svc.ListLots(ctx, "material", flour.Ref.ID, false)
	require.NoError(t, err)
	require.Len(t, lots.Lots, 1)
	assert.True(t, decimal.NewFromInt(2).Equal(lots.Lots[0].Quantity))

	orders, err := svc.ListOrders(ctx, "sale")
	require.NoError(t, err)
	require.Len(t, orders.Sales, 1)
	assert.Equal(t, core.StatusPending, orders.Sales[0].Status)
	require.NoError(t, svc.UpdateOrderStatus(ctx, "sale", orders.Sales[0].ID, "completed"))

	rec, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Items)
	assert.Empty(t, rec.Discrepancies)

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	_, err = svc.Reverse(ctx, "production", order.ID)
	assert.True(t, core.IsInUse(err), "bread was sold: %v", err)

	check, err := svc.CheckSnapshot(ctx, snap)
	require.NoError(t, err)
	assert.Empty(t, check.Diff)

	_, err = svc.Reverse(ctx, "sale", orders.Sales[0].ID)
	require.NoError(t, err)
	_, err = svc.Reverse(ctx, "production", order.ID)
	require.NoError(t, err)

	check, err = svc.CheckSnapshot(ctx, snap)
	require.NoError(t, err)
	assert.NotEmpty(t, check.Diff)
}

func TestApp_ParsesInput(t *testing.T) {
	svc := newApp(t, core.PolicyGreedy)

	_, err := svc.CreateItem(ctx, app.CreateItemRequest{Kind: "tool", Name: "Whisk", Unit: "stk"})
	assert.True(t, core.IsValidation(err))
	_, err = svc.CreateItem(ctx, app.CreateItemRequest{Kind: "material", Name: "Milk", Unit: "gallon"})
	assert.True(t, core.IsValidation(err))
	_, err = svc.Produce(ctx, app.ProduceRequest{ProductID: 1, Quantity: decimal.NewFromInt(1), BatchLabel: "X", Date: "06/01/2026"})
	assert.True(t, core.IsValidation(err))
	_, err = svc.Reverse(ctx, "refund", 1)
	assert.True(t, core.IsValidation(err))
	_, err = svc.ListOrders(ctx, "invoices")
	assert.True(t, core.IsValidation(err))

	err = svc.UpdateOrderStatus(ctx, "purchase", 1, "completed")
	assert.True(t, core.IsValidation(err))
	err = svc.UpdateOrderStatus(ctx, "sale", 1, "lost")
	assert.ErrorIs(t, err, core.ErrInvalidStatus)

	assert.Equal(t, core.PolicyGreedy, svc.Policy())
}
