package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type purchaseOrderService struct {
	store Store
}

// NewPurchaseOrderService constructs a PurchaseOrderService over store.
func NewPurchaseOrderService(store Store) PurchaseOrderService {
	return &purchaseOrderService{store: store}
}

// CreatePurchaseOrder validates every line before writing any of them.
func (s *purchaseOrderService) CreatePurchaseOrder(ctx context.Context, req PurchaseRequest) (*PurchaseOrder, error) {
	if len(req.Lines) == 0 {
		return nil, &ValidationError{Field: "lines", Message: "purchase order must have at least one line"}
	}
	for i, l := range req.Lines {
		if strings.TrimSpace(l.BatchLabel) == "" {
			return nil, &ValidationError{Field: fmt.Sprintf("lines[%d].batch_label", i), Message: "is required"}
		}
		if !l.Quantity.IsPositive() {
			return nil, &ValidationError{Field: fmt.Sprintf("lines[%d].quantity", i), Message: "must be greater than zero"}
		}
		if !l.Unit.Valid() {
			return nil, &ValidationError{Field: fmt.Sprintf("lines[%d].unit", i), Message: fmt.Sprintf("unknown unit %q", l.Unit)}
		}
	}

	var order *PurchaseOrder
	err := s.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetParty(ctx, PartySupplier, req.SupplierID); err != nil {
			return err
		}

		materials := make([]*Item, len(req.Lines))
		for i, l := range req.Lines {
			m, err := tx.GetItem(ctx, MaterialRef(l.MaterialID))
			if err != nil {
				return err
			}
			if !Convertible(l.Unit, m.Unit) {
				return &ValidationError{
					Field:   fmt.Sprintf("lines[%d].unit", i),
					Message: fmt.Sprintf("cannot receive %s into material %q kept in %s", l.Unit, m.Name, m.Unit),
				}
			}
			materials[i] = m
		}

		date := formatDate(req.Date)
		order = &PurchaseOrder{
			Reference:  uuid.NewString(),
			SupplierID: req.SupplierID,
			Date:       date,
		}
		if err := tx.InsertPurchaseOrder(ctx, order); err != nil {
			return fmt.Errorf("insert purchase order: %w", err)
		}

		w := &ledgerWriter{tx: tx}
		for i, l := range req.Lines {
			lot := &Lot{
				Item:     materials[i].Ref,
				Label:    strings.TrimSpace(l.BatchLabel),
				Quantity: decimal.Zero,
				Unit:     l.Unit,
				Date:     date,
			}
			if err := tx.InsertLot(ctx, lot); err != nil {
				return fmt.Errorf("insert material lot: %w", err)
			}
			if err := w.moveLot(ctx, *lot, materials[i], l.Quantity); err != nil {
				return err
			}
			line := &PurchaseOrderLine{
				PurchaseOrderID: order.ID,
				MaterialID:      l.MaterialID,
				LotID:           lot.Ref.ID,
				BatchLabel:      lot.Label,
				Quantity:        l.Quantity,
				Unit:            l.Unit,
			}
			if err := tx.InsertPurchaseOrderLine(ctx, line); err != nil {
				return fmt.Errorf("insert purchase order line: %w", err)
			}
			order.Lines = append(order.Lines, *line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("order_id", order.ID).
		Str("reference", order.Reference).
		Int("supplier_id", order.SupplierID).
		Int("lines", len(order.Lines)).
		Msg("purchase order received")
	return order, nil
}

func (s *purchaseOrderService) ReversePurchaseOrder(ctx context.Context, orderID int) (*Reversal, error) {
	return reverseInTx(ctx, s.store, OrderRef{Kind: OrderPurchase, ID: orderID})
}

func (s *purchaseOrderService) GetPurchaseOrder(ctx context.Context, orderID int) (*PurchaseOrder, error) {
	var order *PurchaseOrder
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		order, err = tx.GetPurchaseOrder(ctx, orderID)
		return err
	})
	return order, err
}

func (s *purchaseOrderService) ListPurchaseOrders(ctx context.Context) ([]PurchaseOrder, error) {
	var orders []PurchaseOrder
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		orders, err = tx.ListPurchaseOrders(ctx)
		return err
	})
	return orders, err
}
