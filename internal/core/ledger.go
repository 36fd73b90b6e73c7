package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// LotLedger is the part of the persistence contract the allocation and
// reversal logic read and mutate.
type LotLedger interface {
	// LotsFor returns the item's lots with quantity > 0, oldest first.
	// Rows are locked for the rest of the transaction where the store supports it.
	LotsFor(ctx context.Context, item ItemRef) ([]Lot, error)

	// AdjustLotQuantity adds delta to a lot. A negative result is refused.
	AdjustLotQuantity(ctx context.Context, lot LotRef, delta decimal.Decimal) error

	// AdjustItemQuantity adds delta to an item's aggregate. A negative result is refused.
	AdjustItemQuantity(ctx context.Context, item ItemRef, delta decimal.Decimal) error
}

// Tx is one all-or-nothing unit of work against the store.
type Tx interface {
	LotLedger

	// ── Items and lots ───────────────────────────────────────────────────────
	CreateItem(ctx context.Context, kind ItemKind, name string, unit Unit) (*Item, error)
	GetItem(ctx context.Context, item ItemRef) (*Item, error)
	ListItems(ctx context.Context, kind ItemKind) ([]Item, error)
	RenameItem(ctx context.Context, item ItemRef, name string) error
	DeleteItem(ctx context.Context, item ItemRef) error
	ItemReferences(ctx context.Context, item ItemRef) ([]string, error)

	InsertLot(ctx context.Context, lot *Lot) error
	GetLot(ctx context.Context, lot LotRef) (*Lot, error)
	ListLots(ctx context.Context, item ItemRef) ([]Lot, error)
	DeleteLot(ctx context.Context, lot LotRef) error
	LotReferences(ctx context.Context, lot LotRef) ([]string, error)

	// ── Recipes ──────────────────────────────────────────────────────────────
	InsertRecipe(ctx context.Context, r *Recipe) error
	GetRecipeByProduct(ctx context.Context, productID int) (*Recipe, error)
	DeleteRecipe(ctx context.Context, recipeID int) error

	// ── Production ───────────────────────────────────────────────────────────
	InsertProductionOrder(ctx context.Context, o *ProductionOrder) error
	InsertProductionComponent(ctx context.Context, c *ProductionOrderComponent) error
	GetProductionOrder(ctx context.Context, id int) (*ProductionOrder, error)
	ListProductionOrders(ctx context.Context) ([]ProductionOrder, error)
	SetProductionOrderStatus(ctx context.Context, id int, status OrderStatus) error
	DeleteProductionOrder(ctx context.Context, id int) error

	// ── Sales ────────────────────────────────────────────────────────────────
	InsertSalesOrder(ctx context.Context, o *SalesOrder) error
	InsertSalesOrderLot(ctx context.Context, l *SalesOrderLot) error
	GetSalesOrder(ctx context.Context, id int) (*SalesOrder, error)
	ListSalesOrders(ctx context.Context) ([]SalesOrder, error)
	SetSalesOrderStatus(ctx context.Context, id int, status OrderStatus) error
	DeleteSalesOrder(ctx context.Context, id int) error

	// ── Purchases ────────────────────────────────────────────────────────────
	InsertPurchaseOrder(ctx context.Context, o *PurchaseOrder) error
	InsertPurchaseOrderLine(ctx context.Context, l *PurchaseOrderLine) error
	GetPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context) ([]PurchaseOrder, error)
	DeletePurchaseOrder(ctx context.Context, id int) error

	// ── Disposals ────────────────────────────────────────────────────────────
	InsertDisposal(ctx context.Context, d *DisposalRecord) error
	GetDisposal(ctx context.Context, id int) (*DisposalRecord, error)
	ListDisposals(ctx context.Context) ([]DisposalRecord, error)
	DeleteDisposal(ctx context.Context, id int) error

	// ── Parties ──────────────────────────────────────────────────────────────
	CreateParty(ctx context.Context, kind PartyKind, c Contact) (*Party, error)
	GetParty(ctx context.Context, kind PartyKind, id int) (*Party, error)
	ListParties(ctx context.Context, kind PartyKind) ([]Party, error)
	DeleteParty(ctx context.Context, kind PartyKind, id int) error
	PartyReferences(ctx context.Context, kind PartyKind, id int) ([]string, error)
}

// Store opens transactions. fn's error rolls back every write made through tx.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}
