package core_test

import (
	"context"
	"testing"
	"time"

	"production-ledger/internal/core"
	"production-ledger/internal/db"
	"production-ledger/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

// dec parses a literal quantity.
func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type testEnv struct {
	store      *store.Store
	catalog    core.CatalogService
	parties    core.PartyService
	production core.ProductionService
	sales      core.SalesService
	purchases  core.PurchaseOrderService
	disposals  core.DisposalService
	reversals  core.ReversalService
	inventory  core.InventoryService
}

// newTestEnv wires every service over a private in-memory SQLite database.
func newTestEnv(t *testing.T, policy core.AllocationPolicy) *testEnv {
	t.Helper()
	sqlDB, err := db.Open(ctx, store.SQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	st := store.New(sqlDB, store.SQLite)
	require.NoError(t, st.Migrate(ctx))

	allocator, err := core.NewAllocator(policy)
	require.NoError(t, err)

	return &testEnv{
		store:      st,
		catalog:    core.NewCatalogService(st),
		parties:    core.NewPartyService(st),
		production: core.NewProductionService(st, allocator),
		sales:      core.NewSalesService(st, allocator),
		purchases:  core.NewPurchaseOrderService(st),
		disposals:  core.NewDisposalService(st),
		reversals:  core.NewReversalService(st),
		inventory:  core.NewInventoryService(st),
	}
}

func (e *testEnv) material(t *testing.T, name string, unit core.Unit) *core.Item {
	t.Helper()
	it, err := e.catalog.CreateItem(ctx, core.KindMaterial, name, unit)
	require.NoError(t, err)
	return it
}

func (e *testEnv) product(t *testing.T, name string, unit core.Unit) *core.Item {
	t.Helper()
	it, err := e.catalog.CreateItem(ctx, core.KindProduct, name, unit)
	require.NoError(t, err)
	return it
}

func (e *testEnv) party(t *testing.T, kind core.PartyKind, name string) int {
	t.Helper()
	p, err := e.parties.CreateParty(ctx, kind, core.Contact{Name: name})
	require.NoError(t, err)
	return p.ID
}

// receive purchases one lot of a material and returns the order.
func (e *testEnv) receive(t *testing.T, supplierID, materialID int, label, qty string, unit core.Unit, date string) *core.PurchaseOrder {
	t.Helper()
	po, err := e.purchases.CreatePurchaseOrder(ctx, core.PurchaseRequest{
		SupplierID: supplierID,
		Date:       day(date),
		Lines: []core.PurchaseLineInput{
			{MaterialID: materialID, BatchLabel: label, Quantity: dec(qty), Unit: unit},
		},
	})
	require.NoError(t, err)
	return po
}

func (e *testEnv) item(t *testing.T, ref core.ItemRef) *core.Item {
	t.Helper()
	it, err := e.catalog.GetItem(ctx, ref)
	require.NoError(t, err)
	return it
}

// lot looks a lot up among all lots of its item, used-up ones included.
func (e *testEnv) lot(t *testing.T, item core.ItemRef, lotID int) core.Lot {
	t.Helper()
	lots, err := e.catalog.ListLots(ctx, item, true)
	require.NoError(t, err)
	for _, l := range lots {
		if l.Ref.ID == lotID {
			return l
		}
	}
	t.Fatalf("lot %d of %s not found", lotID, item)
	return core.Lot{}
}

func (e *testEnv) snapshot(t *testing.T) []byte {
	t.Helper()
	snap, err := e.inventory.Snapshot(ctx)
	require.NoError(t, err)
	b, err := core.EncodeSnapshot(snap)
	require.NoError(t, err)
	return b
}

// requireSameSnapshot fails with a readable diff when two encoded snapshots differ.
func requireSameSnapshot(t *testing.T, want, got []byte) {
	t.Helper()
	if string(want) == string(got) {
		return
	}
	a, err := core.DecodeSnapshot(want)
	require.NoError(t, err)
	b, err := core.DecodeSnapshot(got)
	require.NoError(t, err)
	t.Fatalf("ledger state changed:\n%v", a.Diff(b))
}

func (e *testEnv) assertReconciled(t *testing.T) {
	t.Helper()
	d, err := e.inventory.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, d, "aggregates must equal the sum of their lots")
}

func assertQty(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

// bakery is the Flour/Bread fixture: one 10 kg lot of Flour and a recipe that
// turns 4 kg of Flour into 2 pieces of Bread.
type bakery struct {
	*testEnv
	supplier int
	customer int
	flour    *core.Item
	bread    *core.Item
	flourLot int
	purchase *core.PurchaseOrder
	recipe   *core.Recipe
}

func newBakery(t *testing.T, policy core.AllocationPolicy) *bakery {
	t.Helper()
	e := newTestEnv(t, policy)
	b := &bakery{testEnv: e}
	b.supplier = e.party(t, core.PartySupplier, "Mill & Co")
	b.customer = e.party(t, core.PartyCustomer, "Corner Shop")
	b.flour = e.material(t, "Flour", core.UnitKilogram)
	b.bread = e.product(t, "Bread", core.UnitPiece)
	b.purchase = e.receive(t, b.supplier, b.flour.Ref.ID, "FL-1", "10", core.UnitKilogram, "2026-01-05")
	b.flourLot = b.purchase.Lines[0].LotID

	r, err := e.catalog.SaveRecipe(ctx, core.RecipeInput{
		ProductID:      b.bread.Ref.ID,
		Method:         "Knead and bake.",
		OutputQuantity: dec("2"),
		Lines: []core.RecipeLineInput{
			{Component: b.flour.Ref, Quantity: dec("4"), Unit: core.UnitKilogram},
		},
	})
	require.NoError(t, err)
	b.recipe = r
	return b
}

func (b *bakery) bake(t *testing.T, qty, label string) *core.ProductionOrder {
	t.Helper()
	order, err := b.production.CommitProduction(ctx, core.ProductionRequest{
		ProductID:  b.bread.Ref.ID,
		Quantity:   dec(qty),
		BatchLabel: label,
		Date:       day("2026-01-06"),
	})
	require.NoError(t, err)
	return order
}
