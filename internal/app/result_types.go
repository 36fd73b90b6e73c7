package app

import "production-ledger/internal/core"

// ItemListResult is returned by ListItems.
type ItemListResult struct {
	Kind  core.ItemKind
	Items []core.Item
}

// LotListResult is returned by ListLots.
type LotListResult struct {
	Item core.Item
	Lots []core.Lot
}

// OrderListResult is returned by ListOrders. Only the slice for Kind is set.
type OrderListResult struct {
	Kind       core.OrderKind
	Production []core.ProductionOrder
	Sales      []core.SalesOrder
	Purchases  []core.PurchaseOrder
	Disposals  []core.DisposalRecord
}

// StockResult is returned by GetStockLevels.
type StockResult struct {
	Levels []core.StockLevel
}

// ReconcileResult is returned by Reconcile.
type ReconcileResult struct {
	Items         int
	Discrepancies []core.Discrepancy
}

// SnapshotCheckResult is returned by CheckSnapshot. An empty Diff means the
// ledger still matches the snapshot.
type SnapshotCheckResult struct {
	Diff []string
}
