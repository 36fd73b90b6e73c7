package core

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// AllocationPolicy selects how lots are chosen to cover a required amount.
// One policy is active per deployment.
type AllocationPolicy string

const (
	// PolicyGreedy takes lots in ledger order until the requirement is met.
	PolicyGreedy AllocationPolicy = "greedy"
	// PolicyManual validates caller-supplied per-lot amounts.
	PolicyManual AllocationPolicy = "manual"
)

// ParseAllocationPolicy validates a configured policy name.
func ParseAllocationPolicy(s string) (AllocationPolicy, error) {
	switch p := AllocationPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyGreedy, PolicyManual:
		return p, nil
	}
	return "", fmt.Errorf("unknown allocation policy %q (want greedy or manual)", s)
}

// AllocationChoice assigns Amount, in the target unit, to one lot.
type AllocationChoice struct {
	LotID  int             `json:"lot_id"`
	Amount decimal.Decimal `json:"amount"`
}

// AllocationRequest asks for RequiredTotal of Component, in TargetUnit, out of Lots.
type AllocationRequest struct {
	Component     ItemRef
	RequiredTotal decimal.Decimal
	TargetUnit    Unit
	Lots          []Lot
	Choices       []AllocationChoice
}

// LotAllocation is the amount drawn from one lot. Amount is in the target
// unit; Deduct is the same quantity in the lot's own unit.
type LotAllocation struct {
	Lot    Lot
	Amount decimal.Decimal
	Deduct decimal.Decimal
}

// AllocationResult is the outcome of one allocation. Allocations is only
// meaningful when Sufficient is true.
type AllocationResult struct {
	Sufficient  bool
	Allocations []LotAllocation
	Allocated   decimal.Decimal
	Shortfall   decimal.Decimal
}

// Allocator covers a required amount of one component from its lots.
type Allocator interface {
	Policy() AllocationPolicy
	Allocate(req AllocationRequest) (AllocationResult, error)
}

// NewAllocator returns the allocator for policy.
func NewAllocator(policy AllocationPolicy) (Allocator, error) {
	switch policy {
	case PolicyGreedy:
		return greedyAllocator{}, nil
	case PolicyManual:
		return manualAllocator{}, nil
	}
	return nil, fmt.Errorf("unknown allocation policy %q", policy)
}

// Availability converts every lot's quantity into the target unit.
func Availability(lots []Lot, target Unit) ([]LotAvailability, error) {
	out := make([]LotAvailability, 0, len(lots))
	for _, lot := range lots {
		avail, err := Convert(lot.Quantity, lot.Unit, target)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", lot.Ref, lot.Label, err)
		}
		out = append(out, LotAvailability{Lot: lot, Available: avail})
	}
	return out, nil
}

func totalAvailable(offered []LotAvailability) decimal.Decimal {
	total := decimal.Zero
	for _, o := range offered {
		total = total.Add(o.Available)
	}
	return total
}

// deductFor converts amount back into the lot unit. Taking a whole lot
// deducts its exact stored quantity.
func deductFor(la LotAvailability, amount decimal.Decimal, target Unit) (decimal.Decimal, error) {
	if amount.Equal(la.Available) {
		return la.Lot.Quantity, nil
	}
	return Convert(amount, target, la.Lot.Unit)
}

type greedyAllocator struct{}

func (greedyAllocator) Policy() AllocationPolicy { return PolicyGreedy }

func (greedyAllocator) Allocate(req AllocationRequest) (AllocationResult, error) {
	if len(req.Choices) > 0 {
		return AllocationResult{}, &ValidationError{
			Field:   "allocations",
			Message: "manual lot choices are not accepted under the greedy allocation policy",
		}
	}
	offered, err := Availability(req.Lots, req.TargetUnit)
	if err != nil {
		return AllocationResult{}, err
	}

	remaining := req.RequiredTotal
	result := AllocationResult{Allocated: decimal.Zero}
	for _, la := range offered {
		if !remaining.IsPositive() {
			break
		}
		if !la.Available.IsPositive() {
			continue
		}
		take := decimal.Min(la.Available, remaining)
		deduct, err := deductFor(la, take, req.TargetUnit)
		if err != nil {
			return AllocationResult{}, err
		}
		result.Allocations = append(result.Allocations, LotAllocation{Lot: la.Lot, Amount: take, Deduct: deduct})
		result.Allocated = result.Allocated.Add(take)
		remaining = remaining.Sub(take)
	}

	result.Sufficient = !remaining.IsPositive()
	result.Shortfall = decimal.Max(remaining, decimal.Zero)
	log.Debug().
		Str("component", req.Component.String()).
		Str("required", req.RequiredTotal.String()).
		Str("allocated", result.Allocated.String()).
		Int("lots", len(result.Allocations)).
		Bool("sufficient", result.Sufficient).
		Msg("greedy allocation")
	return result, nil
}

type manualAllocator struct{}

func (manualAllocator) Policy() AllocationPolicy { return PolicyManual }

func (manualAllocator) Allocate(req AllocationRequest) (AllocationResult, error) {
	offered, err := Availability(req.Lots, req.TargetUnit)
	if err != nil {
		return AllocationResult{}, err
	}
	byID := make(map[int]LotAvailability, len(offered))
	for _, la := range offered {
		byID[la.Lot.Ref.ID] = la
	}

	result := AllocationResult{Allocated: decimal.Zero}
	seen := make(map[int]bool, len(req.Choices))
	for _, c := range req.Choices {
		la, ok := byID[c.LotID]
		if !ok {
			return AllocationResult{}, &ValidationError{
				Field:   "allocations",
				Message: fmt.Sprintf("lot %d is not an available lot of %s", c.LotID, req.Component),
			}
		}
		if seen[c.LotID] {
			return AllocationResult{}, &ValidationError{
				Field:   "allocations",
				Message: fmt.Sprintf("lot %d is assigned more than once", c.LotID),
			}
		}
		seen[c.LotID] = true
		if !c.Amount.IsPositive() {
			return AllocationResult{}, &ValidationError{
				Field:   "allocations",
				Message: fmt.Sprintf("amount for lot %d must be positive", c.LotID),
			}
		}
		if c.Amount.GreaterThan(la.Available) {
			return AllocationResult{}, &ValidationError{
				Field: "allocations",
				Message: fmt.Sprintf("amount %s %s for lot %d exceeds its availability %s %s",
					c.Amount.StringFixed(4), req.TargetUnit, c.LotID, la.Available.StringFixed(4), req.TargetUnit),
			}
		}
		deduct, err := deductFor(la, c.Amount, req.TargetUnit)
		if err != nil {
			return AllocationResult{}, err
		}
		result.Allocations = append(result.Allocations, LotAllocation{Lot: la.Lot, Amount: c.Amount, Deduct: deduct})
		result.Allocated = result.Allocated.Add(c.Amount)
	}

	result.Sufficient = result.Allocated.GreaterThanOrEqual(req.RequiredTotal)
	result.Shortfall = decimal.Max(req.RequiredTotal.Sub(result.Allocated), decimal.Zero)
	return result, nil
}
