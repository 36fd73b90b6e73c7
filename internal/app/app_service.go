package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"production-ledger/internal/core"
)

// Migrator creates the ledger schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Store is a ledger store that can also migrate itself.
type Store interface {
	core.Store
	Migrator
}

type appService struct {
	migrator   Migrator
	policy     core.AllocationPolicy
	catalog    core.CatalogService
	parties    core.PartyService
	production core.ProductionService
	sales      core.SalesService
	purchases  core.PurchaseOrderService
	disposals  core.DisposalService
	reversals  core.ReversalService
	inventory  core.InventoryService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	migrator Migrator,
	policy core.AllocationPolicy,
	catalog core.CatalogService,
	parties core.PartyService,
	production core.ProductionService,
	sales core.SalesService,
	purchases core.PurchaseOrderService,
	disposals core.DisposalService,
	reversals core.ReversalService,
	inventory core.InventoryService,
) ApplicationService {
	return &appService{
		migrator:   migrator,
		policy:     policy,
		catalog:    catalog,
		parties:    parties,
		production: production,
		sales:      sales,
		purchases:  purchases,
		disposals:  disposals,
		reversals:  reversals,
		inventory:  inventory,
	}
}

// New wires every core service over one store with the given allocation policy.
func New(store Store, policy core.AllocationPolicy) (ApplicationService, error) {
	allocator, err := core.NewAllocator(policy)
	if err != nil {
		return nil, err
	}
	return NewAppService(
		store,
		policy,
		core.NewCatalogService(store),
		core.NewPartyService(store),
		core.NewProductionService(store, allocator),
		core.NewSalesService(store, allocator),
		core.NewPurchaseOrderService(store),
		core.NewDisposalService(store),
		core.NewReversalService(store),
		core.NewInventoryService(store),
	), nil
}

func (s *appService) Migrate(ctx context.Context) error { return s.migrator.Migrate(ctx) }

func (s *appService) Policy() core.AllocationPolicy { return s.policy }

// ── Catalog ───────────────────────────────────────────────────────────────────

func (s *appService) ListItems(ctx context.Context, kind string) (*ItemListResult, error) {
	k, err := core.ParseItemKind(kind)
	if err != nil {
		return nil, err
	}
	items, err := s.catalog.ListItems(ctx, k)
	if err != nil {
		return nil, err
	}
	return &ItemListResult{Kind: k, Items: items}, nil
}

func (s *appService) CreateItem(ctx context.Context, req CreateItemRequest) (*core.Item, error) {
	kind, err := core.ParseItemKind(req.Kind)
	if err != nil {
		return nil, err
	}
	unit, err := core.ParseUnit(req.Unit)
	if err != nil {
		return nil, err
	}
	return s.catalog.CreateItem(ctx, kind, req.Name, unit)
}

func (s *appService) RenameItem(ctx context.Context, kind string, id int, name string) error {
	ref, err := itemRef(kind, id)
	if err != nil {
		return err
	}
	return s.catalog.RenameItem(ctx, ref, name)
}

func (s *appService) DeleteItem(ctx context.Context, kind string, id int) error {
	ref, err := itemRef(kind, id)
	if err != nil {
		return err
	}
	return s.catalog.DeleteItem(ctx, ref)
}

func (s *appService) ListLots(ctx context.Context, kind string, itemID int, includeEmpty bool) (*LotListResult, error) {
	ref, err := itemRef(kind, itemID)
	if err != nil {
		return nil, err
	}
	item, err := s.catalog.GetItem(ctx, ref)
	if err != nil {
		return nil, err
	}
	lots, err := s.catalog.ListLots(ctx, ref, includeEmpty)
	if err != nil {
		return nil, err
	}
	return &LotListResult{Item: *item, Lots: lots}, nil
}

func (s *appService) GetRecipe(ctx context.Context, productID int) (*core.Recipe, error) {
	return s.catalog.GetRecipe(ctx, productID)
}

func (s *appService) DeleteRecipe(ctx context.Context, productID int) error {
	return s.catalog.DeleteRecipe(ctx, productID)
}

func (s *appService) SaveRecipe(ctx context.Context, req SaveRecipeRequest) (*core.Recipe, error) {
	input := core.RecipeInput{
		ProductID:      req.ProductID,
		Method:         req.Method,
		OutputQuantity: req.OutputQuantity,
	}
	for i, l := range req.Lines {
		ref, err := itemRef(l.Kind, l.ItemID)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		unit, err := core.ParseUnit(l.Unit)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		input.Lines = append(input.Lines, core.RecipeLineInput{Component: ref, Quantity: l.Quantity, Unit: unit})
	}
	return s.catalog.SaveRecipe(ctx, input)
}

// ── Parties ───────────────────────────────────────────────────────────────────

func (s *appService) ListParties(ctx context.Context, kind core.PartyKind) ([]core.Party, error) {
	return s.parties.ListParties(ctx, kind)
}

func (s *appService) CreateParty(ctx context.Context, kind core.PartyKind, req CreatePartyRequest) (*core.Party, error) {
	return s.parties.CreateParty(ctx, kind, core.Contact{
		Name:         req.Name,
		Address:      req.Address,
		ContactEmail: req.ContactEmail,
		PhoneNumber:  req.PhoneNumber,
		VATNumber:    req.VATNumber,
	})
}

func (s *appService) DeleteParty(ctx context.Context, kind core.PartyKind, id int) error {
	return s.parties.DeleteParty(ctx, kind, id)
}

// ── Orders ────────────────────────────────────────────────────────────────────

func (s *appService) PlanProduction(ctx context.Context, req ProduceRequest) (*core.ProductionPlan, error) {
	in, err := productionRequest(req)
	if err != nil {
		return nil, err
	}
	return s.production.PlanProduction(ctx, in)
}

func (s *appService) Produce(ctx context.Context, req ProduceRequest) (*core.ProductionOrder, error) {
	in, err := productionRequest(req)
	if err != nil {
		return nil, err
	}
	return s.production.CommitProduction(ctx, in)
}

func (s *appService) Purchase(ctx context.Context, req PurchaseRequest) (*core.PurchaseOrder, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	in := core.PurchaseRequest{SupplierID: req.SupplierID, Date: date}
	for i, l := range req.Lines {
		unit, err := core.ParseUnit(l.Unit)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		in.Lines = append(in.Lines, core.PurchaseLineInput{
			MaterialID: l.MaterialID,
			BatchLabel: l.BatchLabel,
			Quantity:   l.Quantity,
			Unit:       unit,
		})
	}
	return s.purchases.CreatePurchaseOrder(ctx, in)
}

func (s *appService) Sell(ctx context.Context, req SellRequest) (*core.SalesOrder, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	unit, err := core.ParseUnit(req.Unit)
	if err != nil {
		return nil, err
	}
	var status core.OrderStatus
	if req.Status != "" {
		if status, err = core.ParseOrderStatus(req.Status); err != nil {
			return nil, err
		}
	}
	return s.sales.CreateSale(ctx, core.SaleRequest{
		CustomerID:  req.CustomerID,
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		Unit:        unit,
		Date:        date,
		Status:      status,
		Allocations: choices(req.Allocations),
	})
}

func (s *appService) Dispose(ctx context.Context, req DisposeRequest) (*core.DisposalRecord, error) {
	kind, err := core.ParseItemKind(req.Kind)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	var unit core.Unit
	if req.Unit != "" {
		if unit, err = core.ParseUnit(req.Unit); err != nil {
			return nil, err
		}
	}
	return s.disposals.Dispose(ctx, core.DisposalRequest{
		Lot:      core.LotRef{Kind: kind, ID: req.LotID},
		Quantity: req.Quantity,
		Unit:     unit,
		Reason:   req.Reason,
		Date:     date,
	})
}

func (s *appService) Reverse(ctx context.Context, kind string, id int) (*core.Reversal, error) {
	k, err := core.ParseOrderKind(kind)
	if err != nil {
		return nil, err
	}
	return s.reversals.Reverse(ctx, core.OrderRef{Kind: k, ID: id})
}

func (s *appService) ListOrders(ctx context.Context, kind string) (*OrderListResult, error) {
	k, err := core.ParseOrderKind(kind)
	if err != nil {
		return nil, err
	}
	res := &OrderListResult{Kind: k}
	switch k {
	case core.OrderProduction:
		res.Production, err = s.production.ListProductionOrders(ctx)
	case core.OrderSale:
		res.Sales, err = s.sales.ListSalesOrders(ctx)
	case core.OrderPurchase:
		res.Purchases, err = s.purchases.ListPurchaseOrders(ctx)
	case core.OrderDisposal:
		res.Disposals, err = s.disposals.ListDisposals(ctx)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *appService) UpdateOrderStatus(ctx context.Context, kind string, id int, status string) error {
	k, err := core.ParseOrderKind(kind)
	if err != nil {
		return err
	}
	st, err := core.ParseOrderStatus(status)
	if err != nil {
		return err
	}
	switch k {
	case core.OrderProduction:
		return s.production.UpdateProductionOrderStatus(ctx, id, st)
	case core.OrderSale:
		return s.sales.UpdateSalesOrderStatus(ctx, id, st)
	}
	return &core.ValidationError{Field: "order_kind", Message: fmt.Sprintf("%s records have no status", strings.ToLower(string(k)))}
}

// ── Inventory ─────────────────────────────────────────────────────────────────

func (s *appService) GetStockLevels(ctx context.Context) (*StockResult, error) {
	levels, err := s.inventory.GetStockLevels(ctx)
	if err != nil {
		return nil, err
	}
	return &StockResult{Levels: levels}, nil
}

func (s *appService) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	levels, err := s.inventory.GetStockLevels(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.inventory.Reconcile(ctx)
	if err != nil {
		return nil, err
	}
	return &ReconcileResult{Items: len(levels), Discrepancies: d}, nil
}

func (s *appService) Snapshot(ctx context.Context) ([]byte, error) {
	snap, err := s.inventory.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return core.EncodeSnapshot(snap)
}

func (s *appService) CheckSnapshot(ctx context.Context, data []byte) (*SnapshotCheckResult, error) {
	want, err := core.DecodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	got, err := s.inventory.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &SnapshotCheckResult{Diff: want.Diff(got)}, nil
}

// ── private helpers ───────────────────────────────────────────────────────────

func itemRef(kind string, id int) (core.ItemRef, error) {
	k, err := core.ParseItemKind(kind)
	if err != nil {
		return core.ItemRef{}, err
	}
	return core.ItemRef{Kind: k, ID: id}, nil
}

// parseDate accepts YYYY-MM-DD. An empty string is the zero time, which the
// services record as today.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, &core.ValidationError{Field: "date", Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", s)}
	}
	return t, nil
}

func choices(in []LotChoiceInput) []core.AllocationChoice {
	if len(in) == 0 {
		return nil
	}
	out := make([]core.AllocationChoice, len(in))
	for i, c := range in {
		out[i] = core.AllocationChoice{LotID: c.LotID, Amount: c.Amount}
	}
	return out
}

func productionRequest(req ProduceRequest) (core.ProductionRequest, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return core.ProductionRequest{}, err
	}
	in := core.ProductionRequest{
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		BatchLabel: req.BatchLabel,
		Date:       date,
	}
	if len(req.Allocations) > 0 {
		in.Allocations = make(map[int][]core.AllocationChoice, len(req.Allocations))
		for lineID, cs := range req.Allocations {
			in.Allocations[lineID] = choices(cs)
		}
	}
	return in, nil
}
