package core_test

import (
	"testing"

	"production-ledger/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockLevels(t *testing.T) {
	b := newBakery(t, core.PolicyGreedy)
	b.bake(t, "2", "BR-1")

	levels, err := b.inventory.GetStockLevels(ctx)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Equal(t, b.flour.Ref, levels[0].Item.Ref)
	assertQty(t, "6", levels[0].Item.Quantity)
	require.Len(t, levels[0].Lots, 1)
	assert.Equal(t, b.bread.Ref, levels[1].Item.Ref)
	require.Len(t, levels[1].Lots, 1)
	assert.Equal(t, "BR-1", levels[1].Lots[0].Label)
}

func TestReconcile_ReportsDrift(t *testing.T) {
	b := newBakery(t, core.PolicyGreedy)
	b.assertReconciled(t)

	require.NoError(t, b.store.InTx(ctx, func(tx core.Tx) error {
		return tx.AdjustItemQuantity(ctx, b.flour.Ref, dec("0.5"))
	}))

	d, err := b.inventory.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, d, 1)
	assert.Equal(t, b.flour.Ref, d[0].Item.Ref)
	assertQty(t, "10", d[0].LotTotal)
	assertQty(t, "10.5", d[0].Aggregate)
}

func TestSnapshot_EncodeDecodeAndDiff(t *testing.T) {
	b := newBakery(t, core.PolicyGreedy)
	first, err := b.inventory.Snapshot(ctx)
	require.NoError(t, err)

	raw, err := core.EncodeSnapshot(first)
	require.NoError(t, err)
	decoded, err := core.DecodeSnapshot(raw)
	require.NoError(t, err)
	assert.Empty(t, first.Diff(decoded))

	b.bake(t, "2", "BR-1")
	second, err := b.inventory.Snapshot(ctx)
	require.NoError(t, err)

	diff := first.Diff(second)
	assert.Contains(t, diff, `~ MATERIAL 1 "Flour": 10 kg -> 6 kg`)
	assert.Contains(t, diff, `~ PRODUCT 1 "Bread": 0 stk -> 2 stk`)
	assert.Contains(t, diff, `+ PRODUCT lot 1 "BR-1": 2 stk`)
	assert.Contains(t, diff, `~ MATERIAL lot 1 "FL-1": 10 -> 6 kg`)

	_, err = core.DecodeSnapshot([]byte{0xc1})
	assert.Error(t, err)
}
