package core

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// InventoryService provides read views over the whole ledger.
type InventoryService interface {
	// GetStockLevels returns every material and product with all of its lots,
	// including lots that have been used up.
	GetStockLevels(ctx context.Context) ([]StockLevel, error)

	// Reconcile compares each item's aggregate with the sum of its lots
	// converted into the item unit and returns the items that differ.
	Reconcile(ctx context.Context) ([]Discrepancy, error)

	// Snapshot captures item and lot quantities in canonical form.
	Snapshot(ctx context.Context) (*Snapshot, error)
}

type inventoryService struct {
	store Store
}

// NewInventoryService constructs an InventoryService over store.
func NewInventoryService(store Store) InventoryService {
	return &inventoryService{store: store}
}

// ── Standalone operations ─────────────────────────────────────────────────────

func (s *inventoryService) GetStockLevels(ctx context.Context) ([]StockLevel, error) {
	var levels []StockLevel
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		levels, err = stockLevelsTx(ctx, tx)
		return err
	})
	return levels, err
}

func (s *inventoryService) Reconcile(ctx context.Context) ([]Discrepancy, error) {
	levels, err := s.GetStockLevels(ctx)
	if err != nil {
		return nil, err
	}

	var out []Discrepancy
	for _, lvl := range levels {
		total := decimal.Zero
		for _, lot := range lvl.Lots {
			q, err := Convert(lot.Quantity, lot.Unit, lvl.Item.Unit)
			if err != nil {
				return nil, fmt.Errorf("reconcile %s: %w", lot.Ref, err)
			}
			total = total.Add(q)
		}
		if !total.Equal(lvl.Item.Quantity) {
			out = append(out, Discrepancy{Item: lvl.Item, LotTotal: total, Aggregate: lvl.Item.Quantity})
		}
	}
	return out, nil
}

func (s *inventoryService) Snapshot(ctx context.Context) (*Snapshot, error) {
	levels, err := s.GetStockLevels(ctx)
	if err != nil {
		return nil, err
	}
	return newSnapshot(levels), nil
}

// ── TX-scoped helpers ─────────────────────────────────────────────────────────

func stockLevelsTx(ctx context.Context, tx Tx) ([]StockLevel, error) {
	var levels []StockLevel
	for _, kind := range []ItemKind{KindMaterial, KindProduct} {
		items, err := tx.ListItems(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("list %s items: %w", kind.label(), err)
		}
		for _, item := range items {
			lots, err := tx.ListLots(ctx, item.Ref)
			if err != nil {
				return nil, fmt.Errorf("list lots of %s: %w", item.Ref, err)
			}
			levels = append(levels, StockLevel{Item: item, Lots: lots})
		}
	}
	return levels, nil
}
