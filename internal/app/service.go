package app

import (
	"context"

	"production-ledger/internal/core"
)

// ApplicationService is the single interface UI adapters call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// Migrate creates any missing tables.
	Migrate(ctx context.Context) error

	// Policy returns the allocation policy this deployment runs with.
	Policy() core.AllocationPolicy

	// ── Catalog ──────────────────────────────────────────────────────────────

	// ListItems returns all materials or all products, by name.
	ListItems(ctx context.Context, kind string) (*ItemListResult, error)

	// CreateItem adds a material or product with a zero aggregate.
	CreateItem(ctx context.Context, req CreateItemRequest) (*core.Item, error)

	// RenameItem changes the display name of a material or product.
	RenameItem(ctx context.Context, kind string, id int, name string) error

	// DeleteItem removes an unreferenced material or product.
	DeleteItem(ctx context.Context, kind string, id int) error

	// ListLots returns an item's lots; used-up lots only when includeEmpty is set.
	ListLots(ctx context.Context, kind string, itemID int, includeEmpty bool) (*LotListResult, error)

	// GetRecipe returns the recipe of a product.
	GetRecipe(ctx context.Context, productID int) (*core.Recipe, error)

	// SaveRecipe creates or replaces a product's recipe.
	SaveRecipe(ctx context.Context, req SaveRecipeRequest) (*core.Recipe, error)

	// DeleteRecipe removes a product's recipe.
	DeleteRecipe(ctx context.Context, productID int) error

	// ── Parties ──────────────────────────────────────────────────────────────

	ListParties(ctx context.Context, kind core.PartyKind) ([]core.Party, error)
	CreateParty(ctx context.Context, kind core.PartyKind, req CreatePartyRequest) (*core.Party, error)
	DeleteParty(ctx context.Context, kind core.PartyKind, id int) error

	// ── Orders ───────────────────────────────────────────────────────────────

	// PlanProduction shows the allocation a production request would make
	// without writing anything.
	PlanProduction(ctx context.Context, req ProduceRequest) (*core.ProductionPlan, error)

	// Produce commits a production order or rejects it as a whole.
	Produce(ctx context.Context, req ProduceRequest) (*core.ProductionOrder, error)

	// Purchase receives materials into new lots.
	Purchase(ctx context.Context, req PurchaseRequest) (*core.PurchaseOrder, error)

	// Sell sells a product from its lots.
	Sell(ctx context.Context, req SellRequest) (*core.SalesOrder, error)

	// Dispose writes stock off one lot.
	Dispose(ctx context.Context, req DisposeRequest) (*core.DisposalRecord, error)

	// Reverse undoes a production, sale, disposal or purchase by kind and id.
	Reverse(ctx context.Context, kind string, id int) (*core.Reversal, error)

	// ListOrders returns the records of one order kind.
	ListOrders(ctx context.Context, kind string) (*OrderListResult, error)

	// UpdateOrderStatus relabels a production or sales order.
	UpdateOrderStatus(ctx context.Context, kind string, id int, status string) error

	// ── Inventory ────────────────────────────────────────────────────────────

	GetStockLevels(ctx context.Context) (*StockResult, error)

	// Reconcile lists items whose aggregate differs from the sum of their lots.
	Reconcile(ctx context.Context) (*ReconcileResult, error)

	// Snapshot returns the encoded ledger state.
	Snapshot(ctx context.Context) ([]byte, error)

	// CheckSnapshot compares the current ledger with an encoded snapshot.
	CheckSnapshot(ctx context.Context, data []byte) (*SnapshotCheckResult, error)
}
