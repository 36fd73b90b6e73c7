package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotFound is wrapped by lookups that match no row.
var ErrNotFound = errors.New("not found")

// ErrNegativeQuantity is returned by the ledger when an adjustment would take
// a lot or an aggregate below zero.
var ErrNegativeQuantity = errors.New("quantity would become negative")

// ErrInvalidStatus is returned for status values outside the order lifecycle.
var ErrInvalidStatus = errors.New("invalid order status")

// ValidationError reports bad input detected before any mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// Shortage describes one component that available stock cannot cover.
type Shortage struct {
	Item      ItemRef
	Name      string
	Required  decimal.Decimal
	Available decimal.Decimal
	Unit      Unit
}

// InsufficientInventoryError is returned when aggregate or lot availability
// cannot cover a requested amount. Every short component is listed.
type InsufficientInventoryError struct {
	Shortages []Shortage
}

func (e *InsufficientInventoryError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s %q: required %s %s, available %s %s",
			s.Item, s.Name, s.Required.StringFixed(4), s.Unit, s.Available.StringFixed(4), s.Unit))
	}
	return "insufficient inventory: " + strings.Join(parts, "; ")
}

// InUseError is returned instead of a raw integrity violation when a record
// is still referenced elsewhere.
type InUseError struct {
	Entity     string
	ID         int
	References []string
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("%s %d is in use: %s", e.Entity, e.ID, strings.Join(e.References, ", "))
}

// UnsupportedConversionError is returned for unit pairs with no defined factor.
type UnsupportedConversionError struct {
	From Unit
	To   Unit
}

func (e *UnsupportedConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s to %s", e.From, e.To)
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsInsufficient reports whether err carries an *InsufficientInventoryError.
func IsInsufficient(err error) bool {
	var v *InsufficientInventoryError
	return errors.As(err, &v)
}

// IsInUse reports whether err carries an *InUseError.
func IsInUse(err error) bool {
	var v *InUseError
	return errors.As(err, &v)
}
