package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ProductionState tracks one production request through validation.
//
//	DRAFTING → VALIDATING → COMMITTED
//	                      → REJECTED
type ProductionState string

const (
	StateDrafting   ProductionState = "DRAFTING"
	StateValidating ProductionState = "VALIDATING"
	StateCommitted  ProductionState = "COMMITTED"
	StateRejected   ProductionState = "REJECTED"
)

// ProductionOrder records a completed production run and the lot it created.
type ProductionOrder struct {
	ID          int                        `json:"id"`
	Reference   string                     `json:"reference"`
	ProductID   int                        `json:"product_id"`
	Quantity    decimal.Decimal            `json:"quantity"`
	BatchLabel  string                     `json:"batch_label"`
	OutputLotID int                        `json:"output_lot_id"`
	Date        string                     `json:"date"` // YYYY-MM-DD
	Status      OrderStatus                `json:"status"`
	Components  []ProductionOrderComponent `json:"components"`
}

// ProductionOrderComponent records how much of one lot a production order
// consumed, in the bill-of-materials line's unit.
type ProductionOrderComponent struct {
	ID                int             `json:"id"`
	ProductionOrderID int             `json:"production_order_id"`
	Lot               LotRef          `json:"lot"`
	QuantityUsed      decimal.Decimal `json:"quantity_used"`
	Unit              Unit            `json:"unit"`
}

// ProductionRequest is the input for planning or committing a production run.
// Allocations is keyed by bill-of-materials line id and is only accepted
// under the manual allocation policy.
type ProductionRequest struct {
	ProductID   int                        `json:"product_id"`
	Quantity    decimal.Decimal            `json:"quantity"`
	BatchLabel  string                     `json:"batch_label"`
	Date        time.Time                  `json:"date"`
	Allocations map[int][]AllocationChoice `json:"allocations,omitempty"`
}

// LotAvailability is a lot offered to a bill-of-materials line, with its
// quantity converted into the line's unit.
type LotAvailability struct {
	Lot       Lot
	Available decimal.Decimal
}

// PlannedLine is the allocation outcome for one bill-of-materials line.
type PlannedLine struct {
	Line      BOMLine
	Component Item
	Required  decimal.Decimal
	Offered   []LotAvailability
	Result    AllocationResult
}

// ProductionPlan is the validated, not yet committed, form of a request.
type ProductionPlan struct {
	State         ProductionState
	Product       Item
	Recipe        Recipe
	ScalingFactor decimal.Decimal
	Lines         []PlannedLine
}

// Sufficient reports whether every line is covered.
func (p *ProductionPlan) Sufficient() bool {
	for _, l := range p.Lines {
		if !l.Result.Sufficient {
			return false
		}
	}
	return true
}

// ProductionService runs production orders against the lot ledger.
type ProductionService interface {
	// PlanProduction validates a request and returns the allocation the active
	// policy would make. Nothing is written.
	PlanProduction(ctx context.Context, req ProductionRequest) (*ProductionPlan, error)

	// CommitProduction validates and commits a request in one transaction.
	// Any shortfall rejects the whole order with *InsufficientInventoryError.
	CommitProduction(ctx context.Context, req ProductionRequest) (*ProductionOrder, error)

	// ReverseProduction restores every consumed lot, removes the output lot and
	// deletes the order.
	ReverseProduction(ctx context.Context, orderID int) (*Reversal, error)

	GetProductionOrder(ctx context.Context, orderID int) (*ProductionOrder, error)
	ListProductionOrders(ctx context.Context) ([]ProductionOrder, error)

	// UpdateProductionOrderStatus changes the status label only.
	UpdateProductionOrderStatus(ctx context.Context, orderID int, status OrderStatus) error
}
