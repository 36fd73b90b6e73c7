package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
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

func newService(t *testing.T) app.ApplicationService {
	t.Helper()
	return newPolicyService(t, core.PolicyGreedy)
}

func newPolicyService(t *testing.T, policy core.AllocationPolicy) app.ApplicationService {
	t.Helper()
	sqlDB, err := db.Open(ctx, store.SQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	svc, err := app.New(store.New(sqlDB, store.SQLite), policy)
	require.NoError(t, err)
	require.NoError(t, svc.Migrate(ctx))
	return svc
}

// exec runs one command and returns what it printed.
func exec(t *testing.T, svc app.ApplicationService, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Exec(ctx, svc, args, strings.NewReader(stdin), &out)
	return out.String(), err
}

func mustExec(t *testing.T, svc app.ApplicationService, stdin string, args ...string) string {
	t.Helper()
	out, err := exec(t, svc, stdin, args...)
	require.NoError(t, err, "command %v", args)
	return out
}

func seedBakery(t *testing.T, svc app.ApplicationService) {
	t.Helper()
	mustExec(t, svc, "", "add-material", "Flour", "kg")
	mustExec(t, svc, "", "add-product", "Bread", "stk")
	mustExec(t, svc, `{"name":"Mill & Co"}`, "add-supplier")
	mustExec(t, svc, `{"name":"Corner Shop"}`, "add-customer")
	mustExec(t, svc, "", "purchase", "1", "1", "10", "kg", "FL-1", "2026-01-05")
	mustExec(t, svc, `{"product_id":1,"output_quantity":"2","lines":[{"kind":"material","item_id":1,"quantity":"4","unit":"kg"}]}`, "save-recipe")
}

func TestRun_NoArgsPrintsUsage(t *testing.T) {
	out, err := exec(t, nil, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage: app <command>")
}

func TestRun_UnknownCommand(t *testing.T) {
	_, err := exec(t, newService(t), "", "frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command: frobnicate")
}

func TestRun_ReturnsCommandErrors(t *testing.T) {
	err := Run(ctx, newService(t), []string{"reverse", "sale", "99"})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRun_MissingArguments(t *testing.T) {
	svc := newService(t)
	_, err := exec(t, svc, "", "produce", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage: app produce")

	_, err = exec(t, svc, "", "lots", "material", "abc")
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
}

func TestRun_BakeryFlow(t *testing.T) {
	svc := newService(t)
	seedBakery(t, svc)

	out := mustExec(t, svc, "", "materials")
	assert.Contains(t, out, "MATERIALS")
	assert.Contains(t, out, "Flour")

	out = mustExec(t, svc, "", "plan", "1", "4")
	assert.Contains(t, out, "PRODUCTION PLAN")
	assert.Contains(t, out, "FL-1")
	assert.NotContains(t, out, "SHORT")

	out = mustExec(t, svc, "", "produce", "1", "4", "BR-1", "2026-01-06")
	assert.Contains(t, out, "PRODUCTION ORDER 1")
	assert.Contains(t, out, "material lot 1")

	out = mustExec(t, svc, "", "lots", "product", "1")
	assert.Contains(t, out, "BR-1")

	out = mustExec(t, svc, "", "sell", "1", "1", "1", "stk", "2026-01-07")
	assert.Contains(t, out, "Sales order 1")

	out = mustExec(t, svc, "", "orders", "sale")
	assert.Contains(t, out, "SALE RECORDS")

	out = mustExec(t, svc, "", "reconcile")
	assert.Contains(t, out, "Out of balance: 0")

	out = mustExec(t, svc, "", "stock")
	assert.Contains(t, out, "Bread")
	assert.Contains(t, out, "BR-1")
}

func TestRun_InsufficientStock(t *testing.T) {
	svc := newService(t)
	seedBakery(t, svc)

	_, err := exec(t, svc, "", "produce", "1", "100", "BR-X")
	require.Error(t, err)
	assert.True(t, core.IsInsufficient(err))

	out := mustExec(t, svc, "", "orders", "production")
	assert.NotContains(t, out, "BR-X")
}

func TestRun_ManualPolicySale(t *testing.T) {
	svc := newPolicyService(t, core.PolicyManual)
	seedBakery(t, svc)
	mustExec(t, svc, `{"product_id":1,"quantity":"2","batch_label":"BR-1","allocations":{"1":[{"lot_id":1,"amount":"4"}]}}`, "produce")

	// Without picks nothing is drawn; the shortage reports what the lots hold.
	_, err := exec(t, svc, "", "sell", "1", "1", "1", "stk")
	var insufficient *core.InsufficientInventoryError
	require.ErrorAs(t, err, &insufficient)
	assert.Contains(t, err.Error(), "available 2.0000 stk")

	out := mustExec(t, svc, `{"customer_id":1,"product_id":1,"quantity":"1","unit":"stk","date":"2026-01-07","allocations":[{"lot_id":1,"amount":"1"}]}`, "sell")
	assert.Contains(t, out, "from 1 lot(s)")

	lots, err := svc.ListLots(ctx, "product", 1, false)
	require.NoError(t, err)
	require.Len(t, lots.Lots, 1)
	assert.True(t, decimal.NewFromInt(1).Equal(lots.Lots[0].Quantity), "lot holds %s", lots.Lots[0].Quantity)

	_, err = exec(t, svc, `{"customer_id":1,"product_id":1,"quantity":"1","unit":"stk","allocations":[{"lot_id":1,"amount":"1"}],"extra":true}`, "sell")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestRun_SnapshotAndReverse(t *testing.T) {
	svc := newService(t)
	seedBakery(t, svc)
	file := filepath.Join(t.TempDir(), "ledger.snap")

	mustExec(t, svc, "", "snapshot", file)
	mustExec(t, svc, "", "produce", "1", "2", "BR-1")

	out, err := exec(t, svc, "", "check-snapshot", file)
	require.Error(t, err)
	assert.NotEmpty(t, out)

	out = mustExec(t, svc, "", "reverse", "production", "1")
	assert.Contains(t, out, "REVERSED PRODUCTION 1")

	out = mustExec(t, svc, "", "check-snapshot", file)
	assert.Contains(t, out, "Ledger matches the snapshot.")
}

func TestRun_DeleteReferencedItem(t *testing.T) {
	svc := newService(t)
	seedBakery(t, svc)

	_, err := exec(t, svc, "", "delete", "material", "1")
	require.Error(t, err)
	assert.True(t, core.IsInUse(err))

	mustExec(t, svc, "", "add-material", "Salt", "g")
	out := mustExec(t, svc, "", "rename", "material", "2", "Sea", "Salt")
	assert.Contains(t, out, `Renamed material 2 to "Sea Salt".`)
	out = mustExec(t, svc, "", "delete", "material", "2")
	assert.Contains(t, out, "Deleted material 2.")
}

func TestRun_DeleteRecipe(t *testing.T) {
	svc := newService(t)
	seedBakery(t, svc)

	mustExec(t, svc, "", "delete-recipe", "1")
	_, err := exec(t, svc, "", "recipe", "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = exec(t, svc, "", "produce", "1", "2", "BR-1")
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
}
