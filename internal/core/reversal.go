package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Reversal confirms an undone order and lists the ledger changes it applied.
type Reversal struct {
	Order  OrderRef      `json:"order"`
	Deltas []LedgerDelta `json:"deltas"`
}

// ReversalService undoes any committed order by kind and id.
type ReversalService interface {
	Reverse(ctx context.Context, ref OrderRef) (*Reversal, error)
}

type reversalService struct {
	store Store
}

// NewReversalService constructs a ReversalService over store.
func NewReversalService(store Store) ReversalService {
	return &reversalService{store: store}
}

// Reverse dispatches to the reversal for ref.Kind inside one transaction.
func (s *reversalService) Reverse(ctx context.Context, ref OrderRef) (*Reversal, error) {
	var rev *Reversal
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		rev, err = reverseTx(ctx, tx, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	logReversal(rev)
	return rev, nil
}

func reverseTx(ctx context.Context, tx Tx, ref OrderRef) (*Reversal, error) {
	w := &ledgerWriter{tx: tx}
	var err error
	switch ref.Kind {
	case OrderProduction:
		err = reverseProductionTx(ctx, w, ref.ID)
	case OrderSale:
		err = reverseSaleTx(ctx, w, ref.ID)
	case OrderDisposal:
		err = reverseDisposalTx(ctx, w, ref.ID)
	case OrderPurchase:
		err = reversePurchaseTx(ctx, w, ref.ID)
	default:
		return nil, &ValidationError{Field: "order_kind", Message: fmt.Sprintf("unknown order kind %q", ref.Kind)}
	}
	if err != nil {
		return nil, err
	}
	return &Reversal{Order: ref, Deltas: w.deltas}, nil
}

func logReversal(rev *Reversal) {
	log.Info().
		Str("kind", string(rev.Order.Kind)).
		Int("order_id", rev.Order.ID).
		Int("deltas", len(rev.Deltas)).
		Msg("order reversed")
}

// reverseInTx runs a single-kind reversal for the per-service Reverse methods.
func reverseInTx(ctx context.Context, store Store, ref OrderRef) (*Reversal, error) {
	var rev *Reversal
	err := store.InTx(ctx, func(tx Tx) error {
		var err error
		rev, err = reverseTx(ctx, tx, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	logReversal(rev)
	return rev, nil
}

// ledgerWriter applies quantity changes through a transaction and keeps a
// record of each one.
type ledgerWriter struct {
	tx     Tx
	deltas []LedgerDelta
}

func (w *ledgerWriter) adjustLot(ctx context.Context, lot Lot, delta decimal.Decimal) error {
	if err := w.tx.AdjustLotQuantity(ctx, lot.Ref, delta); err != nil {
		return fmt.Errorf("adjust %s: %w", lot.Ref, err)
	}
	ref := lot.Ref
	w.deltas = append(w.deltas, LedgerDelta{Item: lot.Item, Lot: &ref, Delta: delta, Unit: lot.Unit})
	return nil
}

func (w *ledgerWriter) adjustItem(ctx context.Context, item *Item, delta decimal.Decimal) error {
	if err := w.tx.AdjustItemQuantity(ctx, item.Ref, delta); err != nil {
		return fmt.Errorf("adjust %s: %w", item.Ref, err)
	}
	w.deltas = append(w.deltas, LedgerDelta{Item: item.Ref, Delta: delta, Unit: item.Unit})
	return nil
}

// moveLot changes a lot by lotDelta (lot unit) and its item aggregate by the
// same quantity converted into the item unit.
func (w *ledgerWriter) moveLot(ctx context.Context, lot Lot, item *Item, lotDelta decimal.Decimal) error {
	itemDelta, err := Convert(lotDelta, lot.Unit, item.Unit)
	if err != nil {
		return fmt.Errorf("%s: %w", lot.Ref, err)
	}
	if err := w.adjustLot(ctx, lot, lotDelta); err != nil {
		return err
	}
	return w.adjustItem(ctx, item, itemDelta)
}

// ── Per-kind reversals ───────────────────────────────────────────────────────

func reverseProductionTx(ctx context.Context, w *ledgerWriter, orderID int) error {
	tx := w.tx
	order, err := tx.GetProductionOrder(ctx, orderID)
	if err != nil {
		return err
	}
	product, err := tx.GetItem(ctx, ProductRef(order.ProductID))
	if err != nil {
		return err
	}
	outRef := LotRef{Kind: KindProduct, ID: order.OutputLotID}
	out, err := tx.GetLot(ctx, outRef)
	if err != nil {
		return fmt.Errorf("output lot of production order %d: %w", orderID, err)
	}
	refs, err := tx.LotReferences(ctx, outRef)
	if err != nil {
		return err
	}
	produced, err := Convert(order.Quantity, product.Unit, out.Unit)
	if err != nil {
		return err
	}
	if !out.Quantity.Equal(produced) {
		refs = append(refs, fmt.Sprintf("%s of %s %s already consumed",
			produced.Sub(out.Quantity).StringFixed(4), produced.StringFixed(4), out.Unit))
	}
	if len(refs) > 0 {
		return &InUseError{Entity: "production order", ID: orderID, References: refs}
	}

	for _, c := range order.Components {
		lot, err := tx.GetLot(ctx, c.Lot)
		if err != nil {
			return fmt.Errorf("component lot of production order %d: %w", orderID, err)
		}
		item, err := tx.GetItem(ctx, lot.Item)
		if err != nil {
			return err
		}
		restore, err := Convert(c.QuantityUsed, c.Unit, lot.Unit)
		if err != nil {
			return err
		}
		if err := w.moveLot(ctx, *lot, item, restore); err != nil {
			return err
		}
	}

	// Components go with the order row.
	if err := tx.DeleteProductionOrder(ctx, orderID); err != nil {
		return err
	}
	if err := w.moveLot(ctx, *out, product, out.Quantity.Neg()); err != nil {
		return err
	}
	return tx.DeleteLot(ctx, outRef)
}

func reverseSaleTx(ctx context.Context, w *ledgerWriter, orderID int) error {
	tx := w.tx
	order, err := tx.GetSalesOrder(ctx, orderID)
	if err != nil {
		return err
	}
	product, err := tx.GetItem(ctx, ProductRef(order.ProductID))
	if err != nil {
		return err
	}
	for _, sl := range order.Lots {
		lot, err := tx.GetLot(ctx, LotRef{Kind: KindProduct, ID: sl.LotID})
		if err != nil {
			return fmt.Errorf("lot of sales order %d: %w", orderID, err)
		}
		restore, err := Convert(sl.QuantityUsed, sl.Unit, lot.Unit)
		if err != nil {
			return err
		}
		if err := w.moveLot(ctx, *lot, product, restore); err != nil {
			return err
		}
	}
	return tx.DeleteSalesOrder(ctx, orderID)
}

func reverseDisposalTx(ctx context.Context, w *ledgerWriter, disposalID int) error {
	tx := w.tx
	d, err := tx.GetDisposal(ctx, disposalID)
	if err != nil {
		return err
	}
	lot, err := tx.GetLot(ctx, d.Lot)
	if err != nil {
		return fmt.Errorf("lot of disposal %d: %w", disposalID, err)
	}
	item, err := tx.GetItem(ctx, lot.Item)
	if err != nil {
		return err
	}
	restore, err := Convert(d.Quantity, d.Unit, lot.Unit)
	if err != nil {
		return err
	}
	if err := w.moveLot(ctx, *lot, item, restore); err != nil {
		return err
	}
	return tx.DeleteDisposal(ctx, disposalID)
}

func reversePurchaseTx(ctx context.Context, w *ledgerWriter, orderID int) error {
	tx := w.tx
	order, err := tx.GetPurchaseOrder(ctx, orderID)
	if err != nil {
		return err
	}

	// Check every lot before touching any of them.
	lots := make([]*Lot, len(order.Lines))
	var refs []string
	for i, line := range order.Lines {
		ref := LotRef{Kind: KindMaterial, ID: line.LotID}
		lot, err := tx.GetLot(ctx, ref)
		if err != nil {
			return fmt.Errorf("lot of purchase order %d: %w", orderID, err)
		}
		lots[i] = lot
		lotRefs, err := tx.LotReferences(ctx, ref)
		if err != nil {
			return err
		}
		refs = append(refs, lotRefs...)
		if !lot.Quantity.Equal(line.Quantity) {
			refs = append(refs, fmt.Sprintf("%s %q: %s of %s %s already drawn",
				ref, lot.Label, line.Quantity.Sub(lot.Quantity).StringFixed(4), line.Quantity.StringFixed(4), lot.Unit))
		}
	}
	if len(refs) > 0 {
		return &InUseError{Entity: "purchase order", ID: orderID, References: refs}
	}

	if err := tx.DeletePurchaseOrder(ctx, orderID); err != nil {
		return err
	}
	for _, lot := range lots {
		material, err := tx.GetItem(ctx, lot.Item)
		if err != nil {
			return err
		}
		if err := w.moveLot(ctx, *lot, material, lot.Quantity.Neg()); err != nil {
			return err
		}
		if err := tx.DeleteLot(ctx, lot.Ref); err != nil {
			return err
		}
	}
	return nil
}
