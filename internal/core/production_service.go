package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type productionService struct {
	store     Store
	allocator Allocator
}

// NewProductionService constructs a ProductionService that allocates with allocator.
func NewProductionService(store Store, allocator Allocator) ProductionService {
	return &productionService{store: store, allocator: allocator}
}

// PlanProduction validates req. The transaction only reads.
func (s *productionService) PlanProduction(ctx context.Context, req ProductionRequest) (*ProductionPlan, error) {
	var plan *ProductionPlan
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		plan, err = s.plan(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// CommitProduction validates req and, when every line is covered, commits
// the whole order in the same transaction.
func (s *productionService) CommitProduction(ctx context.Context, req ProductionRequest) (*ProductionOrder, error) {
	var order *ProductionOrder
	err := s.store.InTx(ctx, func(tx Tx) error {
		plan, err := s.plan(ctx, tx, req)
		if err != nil {
			return err
		}
		if plan.State == StateRejected {
			return shortagesOf(plan)
		}
		order, err = s.commit(ctx, tx, req, plan)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("order_id", order.ID).
		Str("reference", order.Reference).
		Int("product_id", order.ProductID).
		Str("quantity", order.Quantity.String()).
		Str("batch", order.BatchLabel).
		Int("components", len(order.Components)).
		Msg("production order committed")
	return order, nil
}

func (s *productionService) ReverseProduction(ctx context.Context, orderID int) (*Reversal, error) {
	return reverseInTx(ctx, s.store, OrderRef{Kind: OrderProduction, ID: orderID})
}

func (s *productionService) GetProductionOrder(ctx context.Context, orderID int) (*ProductionOrder, error) {
	var order *ProductionOrder
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		order, err = tx.GetProductionOrder(ctx, orderID)
		return err
	})
	return order, err
}

func (s *productionService) ListProductionOrders(ctx context.Context) ([]ProductionOrder, error) {
	var orders []ProductionOrder
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		orders, err = tx.ListProductionOrders(ctx)
		return err
	})
	return orders, err
}

func (s *productionService) UpdateProductionOrderStatus(ctx context.Context, orderID int, status OrderStatus) error {
	status, err := ParseOrderStatus(string(status))
	if err != nil {
		return err
	}
	return s.store.InTx(ctx, func(tx Tx) error {
		return tx.SetProductionOrderStatus(ctx, orderID, status)
	})
}

// plan moves a request from DRAFTING through VALIDATING. Input errors are
// returned as errors; shortfalls are reported through the REJECTED state.
func (s *productionService) plan(ctx context.Context, tx Tx, req ProductionRequest) (*ProductionPlan, error) {
	if strings.TrimSpace(req.BatchLabel) == "" {
		return nil, &ValidationError{Field: "batch_label", Message: "is required"}
	}
	if !req.Quantity.IsPositive() {
		return nil, &ValidationError{Field: "quantity", Message: "must be greater than zero"}
	}
	if s.allocator.Policy() == PolicyGreedy && len(req.Allocations) > 0 {
		return nil, &ValidationError{
			Field:   "allocations",
			Message: "manual lot choices are not accepted under the greedy allocation policy",
		}
	}

	product, err := tx.GetItem(ctx, ProductRef(req.ProductID))
	if err != nil {
		return nil, err
	}
	recipe, err := tx.GetRecipeByProduct(ctx, req.ProductID)
	if errors.Is(err, ErrNotFound) {
		return nil, &ValidationError{Field: "product_id", Message: fmt.Sprintf("product %q has no recipe", product.Name)}
	}
	if err != nil {
		return nil, err
	}
	if !recipe.OutputQuantity.IsPositive() {
		return nil, &ValidationError{
			Field:   "recipe",
			Message: fmt.Sprintf("recipe %d has non-positive output quantity %s", recipe.ID, recipe.OutputQuantity),
		}
	}

	plan := &ProductionPlan{
		State:         StateValidating,
		Product:       *product,
		Recipe:        *recipe,
		ScalingFactor: req.Quantity.Div(recipe.OutputQuantity),
	}
	for _, line := range recipe.Lines {
		component, err := tx.GetItem(ctx, line.Component)
		if err != nil {
			return nil, fmt.Errorf("component of recipe %d: %w", recipe.ID, err)
		}
		lots, err := tx.LotsFor(ctx, line.Component)
		if err != nil {
			return nil, fmt.Errorf("lots for %s: %w", line.Component, err)
		}
		offered, err := Availability(lots, line.Unit)
		if err != nil {
			return nil, err
		}
		required := line.QuantityRequired.Mul(req.Quantity).Div(recipe.OutputQuantity)
		result, err := s.allocator.Allocate(AllocationRequest{
			Component:     line.Component,
			RequiredTotal: required,
			TargetUnit:    line.Unit,
			Lots:          lots,
			Choices:       req.Allocations[line.ID],
		})
		if err != nil {
			return nil, err
		}
		plan.Lines = append(plan.Lines, PlannedLine{
			Line:      line,
			Component: *component,
			Required:  required,
			Offered:   offered,
			Result:    result,
		})
	}

	if !plan.Sufficient() {
		plan.State = StateRejected
	}
	return plan, nil
}

func shortagesOf(plan *ProductionPlan) error {
	var shortages []Shortage
	for _, pl := range plan.Lines {
		if pl.Result.Sufficient {
			continue
		}
		shortages = append(shortages, Shortage{
			Item:      pl.Component.Ref,
			Name:      pl.Component.Name,
			Required:  pl.Required,
			Available: totalAvailable(pl.Offered),
			Unit:      pl.Line.Unit,
		})
	}
	return &InsufficientInventoryError{Shortages: shortages}
}

// commit writes a validated plan: output lot, order row, per-lot deductions
// with their audit rows, and the output aggregate.
func (s *productionService) commit(ctx context.Context, tx Tx, req ProductionRequest, plan *ProductionPlan) (*ProductionOrder, error) {
	w := &ledgerWriter{tx: tx}
	date := formatDate(req.Date)

	out := &Lot{
		Item:     plan.Product.Ref,
		Label:    strings.TrimSpace(req.BatchLabel),
		Quantity: decimal.Zero,
		Unit:     plan.Product.Unit,
		Date:     date,
	}
	if err := tx.InsertLot(ctx, out); err != nil {
		return nil, fmt.Errorf("insert output lot: %w", err)
	}

	order := &ProductionOrder{
		Reference:   uuid.NewString(),
		ProductID:   plan.Product.Ref.ID,
		Quantity:    req.Quantity,
		BatchLabel:  out.Label,
		OutputLotID: out.Ref.ID,
		Date:        date,
		Status:      StatusCompleted,
	}
	if err := tx.InsertProductionOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("insert production order: %w", err)
	}

	for _, pl := range plan.Lines {
		component := pl.Component
		for _, a := range pl.Result.Allocations {
			if err := w.moveLot(ctx, a.Lot, &component, a.Deduct.Neg()); err != nil {
				return nil, err
			}
			c := &ProductionOrderComponent{
				ProductionOrderID: order.ID,
				Lot:               a.Lot.Ref,
				QuantityUsed:      a.Amount,
				Unit:              pl.Line.Unit,
			}
			if err := tx.InsertProductionComponent(ctx, c); err != nil {
				return nil, fmt.Errorf("insert production component: %w", err)
			}
			order.Components = append(order.Components, *c)
		}
	}

	product := plan.Product
	if err := w.moveLot(ctx, *out, &product, req.Quantity); err != nil {
		return nil, err
	}
	return order, nil
}
