package core_test

import (
	"errors"
	"strconv"
	"testing"

	"production-ledger/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduction_CommitFromSingleLot(t *testing.T) {
	b := newBakery(t, core.PolicyGreedy)

	order := b.bake(t, "4", "BR-1")

	assert.Equal(t, core.StatusCompleted, order.Status)
	assert.NotEmpty(t, order.Reference)
	assert.Equal(t, "2026-01-06", order.Date)
	require.Len(t, order.Components, 1)
	assert.Equal(t, b.flourLot, order.Components[0].Lot.ID)
	assertQty(t, "8", order.Components[0].QuantityUsed)
	assert.Equal(t, core.UnitKilogram, order.Components[0].Unit)

	assertQty(t, "2", b.lot(t, b.flour.Ref, b.flourLot).Quantity)
	assertQty(t, "2", b.item(t, b.flour.Ref).Quantity)
	assertQty(t, "4", b.item(t, b.bread.Ref).Quantity)

	out := b.lot(t, b.bread.Ref, order.OutputLotID)
	assert.Equal(t, "BR-1", out.Label)
	assertQty(t, "4", out.Quantity)
	b.assertReconciled(t)
}

func TestProduction_InsufficientLeavesLedgerUnchanged(t *testing.T) {
	b := newBakery(t, core.PolicyGreedy)
	before := b.snapshot(t)

	// Rejection is repeatable and leaves the same state every time.
	for range 2 {
		_, err := b.production.CommitProduction(ctx, core.ProductionRequest{
			ProductID:  b.bread.Ref.ID,
			Quantity:   dec("6"),
			BatchLabel: "BR-2",
		})

		var insufficient *core.InsufficientInventoryError
		require.True(t, errors.As(err, &insufficient), "got %v", err)
		require.Len(t, insufficient.Shortages, 1)
		s := insufficient.Shortages[0]
		assert.Equal(t, b.flour.Ref, s.Item)
		assertQty(t, "12", s.Required)
		assertQty(t, "10", s.Available)

		requireSameSnapshot(t, before, b.snapshot(t))
	}
	assertQty(t, "10", b.lot(t, b.flour.Ref, b.flourLot).Quantity)
	assertQty(t, "10", b.item(t, b.flour.Ref).Quantity)

	orders, err := b.production.ListProductionOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestProduction_ComponentWithoutLots(t *testing.T) {
	b := newBakery(t, core.PolicyGreedy)
	yeast := b.material(t, "Yeast", core.UnitGram)
	_, err := b.catalog.SaveRecipe(ctx, core.RecipeInput{
		ProductID:      b.bread.Ref.ID,
		OutputQuantity: dec("2"),
		Lines: []core.RecipeLineInput{
			{Component: b.flour.Ref, Quantity: dec("4"), Unit: core.UnitKilogram},
			{Component: yeast.Ref, Quantity: dec("10"), Unit: core.UnitGram},
		},
	})
	require.NoError(t, err)
	before := b.snapshot(t)

	for range 2 {
		_, err = b.production.CommitProduction(ctx, core.ProductionRequest{
			ProductID:  b.bread.Ref.ID,
			Quantity:   dec("2"),
			BatchLabel: "BR-Y",
		})

		var insufficient *core.InsufficientInventoryError
		require.True(t, errors.As(err, &insufficient), "got %v", err)
		require.Len(t, insufficient.Shortages, 1)
		s := insufficient.Shortages[0]
		assert.Equal(t, yeast.Ref, s.Item)
		assertQty(t, "10", s.Required)
		assertQty(t, "0", s.Available)
		assert.Equal(t, core.UnitGram, s.Unit)

		requireSameSnapshot(t, before, b.snapshot(t))
	}
	assertQty(t, "10", b.lot(t, b.flour.Ref, b.flourLot).Quantity)
}

func TestProduction_ScalesWithoutRemainder(t *testing.T) {
	b := newBakery(t, core.PolicyGreedy)
	_, err := b.catalog.SaveRecipe(ctx, core.RecipeInput{
		ProductID:      b.bread.Ref.ID,
		OutputQuantity: dec("3"),
		Lines: []core.RecipeLineInput{
			{Component: b.flour.Ref, Quantity: dec("3"), Unit: core.UnitKilogram},
		},
	})
	require.NoError(t, err)

	for i := range 3 {
		order := b.bake(t, "1", "BR-"+strconv.Itoa(i+1))
		require.Len(t, order.Components, 1)
		assertQty(t, "1", order.Components[0].QuantityUsed)
	}

	lot := b.lot(t, b.flour.Ref, b.flourLot)
	assert.True(t, dec("7").Equal(lot.Quantity), "lot holds %s", lot.Quantity.String())
	assertQty(t, "7", b.item(t, b.flour.Ref).Quantity)
	assertQty(t, "3", b.item(t, b.bread.Ref).Quantity)
	b.assertReconciled(t)

	// A lot that reaches exactly zero is no longer offered.
	for i := range 7 {
		b.bake(t, "1", "BR-"+strconv.Itoa(i+4))
	}
	assertQty(t, "0", b.lot(t, b.flour.Ref, b.flourLot).Quantity)
	offered, err := b.catalog.ListLots(ctx, b.flour.Ref, false)
	require.NoError(t, err)
	assert.Empty(t, offered)
}

func TestProduction_Plan(t *testing.T) {
	b := newBakery(t, core.PolicyGreedy)
	before := b.snapshot(t)

	plan, err := b.production.PlanProduction(ctx, core.ProductionRequest{
		ProductID:  b.bread.Ref.ID,
		Quantity:   dec("3"),
		BatchLabel: "BR-3",
	})
	require.NoError(t, err)
	assert.Equal(t, core.StateValidating, plan.State)
	assert.True(t, plan.Sufficient())
	assertQty(t, "1.5", plan.ScalingFactor)
	require.Len(t, plan.Lines, 1)
	assertQty(t, "6", plan.Lines[0].Required)
	require.Len(t, plan.Lines[0].Offered, 1)
	assertQty(t, "10", plan.Lines[0].Offered[0].Available)

	short, err := b.production.PlanProduction(ctx, core.ProductionRequest{
		ProductID:  b.bread.Ref.ID,
		Quantity:   dec("6"),
		BatchLabel: "BR-3",
	})
	require.NoError(t, err)
	assert.Equal(t, core.StateRejected, short.State)
	assertQty(t, "2", short.Lines[0].Result.Shortfall)

	requireSameSnapshot(t, before, b.snapshot(t))
}

func TestProduction_DrawsOldestLotsFirst(t *testing.T) {
	b := newBakery(t, core.PolicyGreedy)
	// Older than FL-1 and held in grams.
	older := b.receive(t, b.supplier, b.flour.Ref.ID, "FL-0", "3000", core.UnitGram, "2026-01-01")
	olderLot := older.Lines[0].LotID

	order := b.bake(t, "4", "BR-4")

	require.Len(t, order.Components, 2)
	assert.Equal(t, olderLot, order.Components[0].Lot.ID)
	assertQty(t, "3", order.Components[0].QuantityUsed)
	assert.Equal(t, b.flourLot, order.Components[1].Lot.ID)
	assertQty(t, "5", order.Components[1].QuantityUsed)

	assertQty(t, "0", b.lot(t, b.flour.Ref, olderLot).Quantity)
	assertQty(t, "5", b.lot(t, b.flour.Ref, b.flourLot).Quantity)
	assertQty(t, "5", b.item(t, b.flour.Ref).Quantity)
	b.assertReconciled(t)

	// An empty lot stays on record but is no longer offered.
	offered, err := b.catalog.ListLots(ctx, b.flour.Ref, false)
	require.NoError(t, err)
	require.Len(t, offered, 1)
	assert.Equal(t, b.flourLot, offered[0].Ref.ID)
}

func TestProduction_ProductComponent(t *testing.T) {
	b := newBakery(t, core.PolicyGreedy)
	b.bake(t, "4", "BR-5")

	sandwich := b.product(t, "Sandwich", core.UnitPiece)
	_, err := b.catalog.SaveRecipe(ctx, core.RecipeInput{
		ProductID:      sandwich.Ref.ID,
		OutputQuantity: dec("1"),
		Lines: []core.RecipeLineInput{
			{Component: b.bread.Ref, Quantity: dec("1"), Unit: core.UnitPiece},
		},
	})
	require.NoError(t, err)

	order, err := b.production.CommitProduction(ctx, core.ProductionRequest{
		ProductID:  sandwich.Ref.ID,
		Quantity:   dec("3"),
		BatchLabel: "SW-1",
	})
	require.NoError(t, err)
	require.Len(t, order.Components, 1)
	assert.Equal(t, core.KindProduct, order.Components[0].Lot.Kind)

	assertQty(t, "1", b.item(t, b.bread.Ref).Quantity)
	assertQty(t, "3", b.item(t, sandwich.Ref).Quantity)
	b.assertReconciled(t)
}

func TestProduction_Validation(t *testing.T) {
	b := newBakery(t, core.PolicyGreedy)
	cake := b.product(t, "Cake", core.UnitPiece)

	tests := map[string]core.ProductionRequest{
		"missing batch label": {ProductID: b.bread.Ref.ID, Quantity: dec("2")},
		"zero quantity":       {ProductID: b.bread.Ref.ID, Quantity: dec("0"), BatchLabel: "X"},
		"negative quantity":   {ProductID: b.bread.Ref.ID, Quantity: dec("-2"), BatchLabel: "X"},
		"no recipe":           {ProductID: cake.Ref.ID, Quantity: dec("1"), BatchLabel: "X"},
		"manual choices under greedy": {
			ProductID:   b.bread.Ref.ID,
			Quantity:    dec("2"),
			BatchLabel:  "X",
			Allocations: map[int][]core.AllocationChoice{b.recipe.Lines[0].ID: {{LotID: b.flourLot, Amount: dec("4")}}},
		},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := b.production.CommitProduction(ctx, req)
			assert.True(t, core.IsValidation(err), "got %v", err)
		})
	}

	_, err := b.production.CommitProduction(ctx, core.ProductionRequest{ProductID: 999, Quantity: dec("1"), BatchLabel: "X"})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestProduction_ManualPolicy(t *testing.T) {
	b := newBakery(t, core.PolicyManual)
	second := b.receive(t, b.supplier, b.flour.Ref.ID, "FL-2", "6", core.UnitKilogram, "2026-01-07")
	secondLot := second.Lines[0].LotID
	lineID := b.recipe.Lines[0].ID

	order, err := b.production.CommitProduction(ctx, core.ProductionRequest{
		ProductID:  b.bread.Ref.ID,
		Quantity:   dec("4"),
		BatchLabel: "BR-M",
		Allocations: map[int][]core.AllocationChoice{
			lineID: {{LotID: secondLot, Amount: dec("6")}, {LotID: b.flourLot, Amount: dec("2")}},
		},
	})
	require.NoError(t, err)
	require.Len(t, order.Components, 2)

	assertQty(t, "0", b.lot(t, b.flour.Ref, secondLot).Quantity)
	assertQty(t, "8", b.lot(t, b.flour.Ref, b.flourLot).Quantity)
	assertQty(t, "8", b.item(t, b.flour.Ref).Quantity)
	b.assertReconciled(t)

	// Choices that do not cover the requirement reject the whole order.
	before := b.snapshot(t)
	_, err = b.production.CommitProduction(ctx, core.ProductionRequest{
		ProductID:   b.bread.Ref.ID,
		Quantity:    dec("4"),
		BatchLabel:  "BR-M2",
		Allocations: map[int][]core.AllocationChoice{lineID: {{LotID: b.flourLot, Amount: dec("5")}}},
	})
	assert.True(t, core.IsInsufficient(err), "got %v", err)
	requireSameSnapshot(t, before, b.snapshot(t))
}

func TestProduction_UpdateStatus(t *testing.T) {
	b := newBakery(t, core.PolicyGreedy)
	order := b.bake(t, "2", "BR-6")
	before := b.snapshot(t)

	require.NoError(t, b.production.UpdateProductionOrderStatus(ctx, order.ID, core.StatusCancelled))
	got, err := b.production.GetProductionOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCancelled, got.Status)
	require.Len(t, got.Components, 1)

	// A status change is a label only.
	requireSameSnapshot(t, before, b.snapshot(t))

	require.NoError(t, b.production.UpdateProductionOrderStatus(ctx, order.ID, core.OrderStatus("pending")))
	got, err = b.production.GetProductionOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, got.Status)

	err = b.production.UpdateProductionOrderStatus(ctx, order.ID, core.OrderStatus("SHIPPED"))
	assert.ErrorIs(t, err, core.ErrInvalidStatus)
	err = b.production.UpdateProductionOrderStatus(ctx, 999, core.StatusPending)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
