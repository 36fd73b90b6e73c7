package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type salesService struct {
	store     Store
	allocator Allocator
}

// NewSalesService constructs a SalesService that draws lots with allocator.
func NewSalesService(store Store, allocator Allocator) SalesService {
	return &salesService{store: store, allocator: allocator}
}

// CreateSale rejects the sale when the product aggregate, converted into the
// product unit, cannot cover it. Otherwise the sold quantity is drawn from
// product lots and recorded against the order.
func (s *salesService) CreateSale(ctx context.Context, req SaleRequest) (*SalesOrder, error) {
	if !req.Quantity.IsPositive() {
		return nil, &ValidationError{Field: "quantity", Message: "must be greater than zero"}
	}
	if !req.Unit.Valid() {
		return nil, &ValidationError{Field: "unit", Message: fmt.Sprintf("unknown unit %q", req.Unit)}
	}
	status := StatusCompleted
	if req.Status != "" {
		var err error
		if status, err = ParseOrderStatus(string(req.Status)); err != nil {
			return nil, err
		}
	}

	var order *SalesOrder
	err := s.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetParty(ctx, PartyCustomer, req.CustomerID); err != nil {
			return err
		}
		product, err := tx.GetItem(ctx, ProductRef(req.ProductID))
		if err != nil {
			return err
		}
		requested, err := Convert(req.Quantity, req.Unit, product.Unit)
		if err != nil {
			return &ValidationError{Field: "unit", Message: err.Error()}
		}
		if product.Quantity.LessThan(requested) {
			return &InsufficientInventoryError{Shortages: []Shortage{{
				Item:      product.Ref,
				Name:      product.Name,
				Required:  requested,
				Available: product.Quantity,
				Unit:      product.Unit,
			}}}
		}

		lots, err := tx.LotsFor(ctx, product.Ref)
		if err != nil {
			return fmt.Errorf("lots for %s: %w", product.Ref, err)
		}
		result, err := s.allocator.Allocate(AllocationRequest{
			Component:     product.Ref,
			RequiredTotal: req.Quantity,
			TargetUnit:    req.Unit,
			Lots:          lots,
			Choices:       req.Allocations,
		})
		if err != nil {
			return err
		}
		if !result.Sufficient {
			offered, err := Availability(lots, req.Unit)
			if err != nil {
				return err
			}
			return &InsufficientInventoryError{Shortages: []Shortage{{
				Item:      product.Ref,
				Name:      product.Name,
				Required:  req.Quantity,
				Available: totalAvailable(offered),
				Unit:      req.Unit,
			}}}
		}
		if !result.Allocated.Equal(req.Quantity) {
			return &ValidationError{
				Field: "allocations",
				Message: fmt.Sprintf("lot amounts total %s %s but the sale is for %s %s",
					result.Allocated.StringFixed(4), req.Unit, req.Quantity.StringFixed(4), req.Unit),
			}
		}

		order = &SalesOrder{
			Reference:  uuid.NewString(),
			CustomerID: req.CustomerID,
			ProductID:  req.ProductID,
			Quantity:   req.Quantity,
			Unit:       req.Unit,
			Date:       formatDate(req.Date),
			Status:     status,
		}
		if err := tx.InsertSalesOrder(ctx, order); err != nil {
			return fmt.Errorf("insert sales order: %w", err)
		}

		w := &ledgerWriter{tx: tx}
		for _, a := range result.Allocations {
			if err := w.moveLot(ctx, a.Lot, product, a.Deduct.Neg()); err != nil {
				return err
			}
			sl := &SalesOrderLot{
				SalesOrderID: order.ID,
				LotID:        a.Lot.Ref.ID,
				QuantityUsed: a.Amount,
				Unit:         req.Unit,
			}
			if err := tx.InsertSalesOrderLot(ctx, sl); err != nil {
				return fmt.Errorf("insert sales order lot: %w", err)
			}
			order.Lots = append(order.Lots, *sl)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("order_id", order.ID).
		Str("reference", order.Reference).
		Int("product_id", order.ProductID).
		Int("customer_id", order.CustomerID).
		Str("quantity", order.Quantity.String()).
		Str("unit", string(order.Unit)).
		Msg("sales order committed")
	return order, nil
}

func (s *salesService) ReverseSale(ctx context.Context, orderID int) (*Reversal, error) {
	return reverseInTx(ctx, s.store, OrderRef{Kind: OrderSale, ID: orderID})
}

func (s *salesService) GetSalesOrder(ctx context.Context, orderID int) (*SalesOrder, error) {
	var order *SalesOrder
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		order, err = tx.GetSalesOrder(ctx, orderID)
		return err
	})
	return order, err
}

func (s *salesService) ListSalesOrders(ctx context.Context) ([]SalesOrder, error) {
	var orders []SalesOrder
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		orders, err = tx.ListSalesOrders(ctx)
		return err
	})
	return orders, err
}

func (s *salesService) UpdateSalesOrderStatus(ctx context.Context, orderID int, status OrderStatus) error {
	status, err := ParseOrderStatus(string(status))
	if err != nil {
		return err
	}
	return s.store.InTx(ctx, func(tx Tx) error {
		return tx.SetSalesOrderStatus(ctx, orderID, status)
	})
}
