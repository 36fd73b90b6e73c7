package core

import (
	"fmt"
	"strings"
	"time"
)

// ItemKind distinguishes the two stock-tracked entity kinds.
type ItemKind string

const (
	KindMaterial ItemKind = "MATERIAL"
	KindProduct  ItemKind = "PRODUCT"
)

// ParseItemKind accepts "material"/"mat" and "product"/"prod" in any case.
func ParseItemKind(s string) (ItemKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "material", "materials", "mat", "m":
		return KindMaterial, nil
	case "product", "products", "prod", "p":
		return KindProduct, nil
	}
	return "", &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown item kind %q", s)}
}

// Valid reports whether k is a known kind.
func (k ItemKind) Valid() bool { return k == KindMaterial || k == KindProduct }

func (k ItemKind) label() string {
	if k == KindProduct {
		return "product"
	}
	return "material"
}

// ItemRef identifies a material or a product. It is the component reference
// used by bill-of-materials lines: exactly one kind, never both.
type ItemRef struct {
	Kind ItemKind `json:"kind"`
	ID   int      `json:"id"`
}

// MaterialRef returns a reference to the material with the given id.
func MaterialRef(id int) ItemRef { return ItemRef{Kind: KindMaterial, ID: id} }

// ProductRef returns a reference to the product with the given id.
func ProductRef(id int) ItemRef { return ItemRef{Kind: KindProduct, ID: id} }

func (r ItemRef) String() string { return fmt.Sprintf("%s %d", r.Kind.label(), r.ID) }

func (r ItemRef) validate() error {
	if !r.Kind.Valid() {
		return &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown item kind %q", r.Kind)}
	}
	if r.ID <= 0 {
		return &ValidationError{Field: "id", Message: "must be a positive id"}
	}
	return nil
}

// LotRef identifies a material lot or a product lot.
type LotRef struct {
	Kind ItemKind `json:"kind"`
	ID   int      `json:"id"`
}

func (r LotRef) String() string { return fmt.Sprintf("%s lot %d", r.Kind.label(), r.ID) }

// OrderStatus is the lifecycle label shown on production and sales orders.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// ParseOrderStatus validates a status value.
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrInvalidStatus)
}

// OrderKind names the record types a reversal can undo.
type OrderKind string

const (
	OrderProduction OrderKind = "PRODUCTION"
	OrderSale       OrderKind = "SALE"
	OrderDisposal   OrderKind = "DISPOSAL"
	OrderPurchase   OrderKind = "PURCHASE"
)

// ParseOrderKind accepts the lower-case CLI spelling of an order kind.
func ParseOrderKind(s string) (OrderKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return OrderProduction, nil
	case "sale", "sales":
		return OrderSale, nil
	case "disposal", "disp":
		return OrderDisposal, nil
	case "purchase", "po":
		return OrderPurchase, nil
	}
	return "", &ValidationError{Field: "order_kind", Message: fmt.Sprintf("unknown order kind %q", s)}
}

// OrderRef identifies a record for reversal.
type OrderRef struct {
	Kind OrderKind
	ID   int
}

const dateLayout = "2006-01-02"

// formatDate renders t as YYYY-MM-DD. The zero time means today.
func formatDate(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format(dateLayout)
}
