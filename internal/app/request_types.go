package app

import (
	"github.com/shopspring/decimal"
)

// Kinds, units and dates are kept as the strings a user typed; the service
// parses them. Dates are YYYY-MM-DD and default to today.

// CreateItemRequest is the input for creating a material or product.
type CreateItemRequest struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// SaveRecipeRequest is the input for creating or replacing a recipe.
type SaveRecipeRequest struct {
	ProductID      int                 `json:"product_id"`
	Method         string              `json:"method"`
	OutputQuantity decimal.Decimal     `json:"output_quantity"`
	Lines          []RecipeLineRequest `json:"lines"`
}

// RecipeLineRequest is one component of a SaveRecipeRequest.
type RecipeLineRequest struct {
	Kind     string          `json:"kind"` // material | product
	ItemID   int             `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
}

// CreatePartyRequest is the input for creating a customer or supplier.
type CreatePartyRequest struct {
	Name         string `json:"name"`
	Address      string `json:"address"`
	ContactEmail string `json:"contact_email"`
	PhoneNumber  string `json:"phone_number"`
	VATNumber    string `json:"vat_number"`
}

// ProduceRequest is the input for planning or committing production.
// Allocations maps bill-of-materials line ids to lot choices and is only
// accepted under the manual allocation policy.
type ProduceRequest struct {
	ProductID   int                      `json:"product_id"`
	Quantity    decimal.Decimal          `json:"quantity"`
	BatchLabel  string                   `json:"batch_label"`
	Date        string                   `json:"date"`
	Allocations map[int][]LotChoiceInput `json:"allocations,omitempty"`
}

// LotChoiceInput assigns an amount, in the line or sale unit, to one lot.
type LotChoiceInput struct {
	LotID  int             `json:"lot_id"`
	Amount decimal.Decimal `json:"amount"`
}

// PurchaseRequest is the input for receiving materials from a supplier.
type PurchaseRequest struct {
	SupplierID int                 `json:"supplier_id"`
	Date       string              `json:"date"`
	Lines      []PurchaseLineInput `json:"lines"`
}

// PurchaseLineInput is one received lot.
type PurchaseLineInput struct {
	MaterialID int             `json:"material_id"`
	BatchLabel string          `json:"batch_label"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       string          `json:"unit"`
}

// SellRequest is the input for selling a product.
type SellRequest struct {
	CustomerID  int              `json:"customer_id"`
	ProductID   int              `json:"product_id"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Unit        string           `json:"unit"`
	Date        string           `json:"date"`
	Status      string           `json:"status"`
	Allocations []LotChoiceInput `json:"allocations,omitempty"`
}

// DisposeRequest is the input for writing stock off a lot. An empty Unit
// means the lot's unit.
type DisposeRequest struct {
	Kind     string          `json:"kind"`
	LotID    int             `json:"lot_id"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
	Reason   string          `json:"reason"`
	Date     string          `json:"date"`
}
