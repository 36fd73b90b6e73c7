package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrder is a receipt of materials from a supplier. Every line created
// its own material lot.
type PurchaseOrder struct {
	ID         int                 `json:"id"`
	Reference  string              `json:"reference"`
	SupplierID int                 `json:"supplier_id"`
	Date       string              `json:"date"` // YYYY-MM-DD
	Lines      []PurchaseOrderLine `json:"lines"`
}

// PurchaseOrderLine is one purchased material. Quantity and Unit are as
// purchased; the lot keeps them unchanged.
type PurchaseOrderLine struct {
	ID              int             `json:"id"`
	PurchaseOrderID int             `json:"purchase_order_id"`
	MaterialID      int             `json:"material_id"`
	LotID           int             `json:"lot_id"`
	BatchLabel      string          `json:"batch_label"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            Unit            `json:"unit"`
}

// PurchaseLineInput holds the fields required to purchase one material lot.
type PurchaseLineInput struct {
	MaterialID int             `json:"material_id"`
	BatchLabel string          `json:"batch_label"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       Unit            `json:"unit"`
}

// PurchaseRequest is the input for CreatePurchaseOrder.
type PurchaseRequest struct {
	SupplierID int                 `json:"supplier_id"`
	Date       time.Time           `json:"date"`
	Lines      []PurchaseLineInput `json:"lines"`
}

// PurchaseOrderService receives materials into new lots.
type PurchaseOrderService interface {
	// CreatePurchaseOrder creates one material lot per line in the purchase unit
	// and raises each material aggregate by the converted quantity.
	CreatePurchaseOrder(ctx context.Context, req PurchaseRequest) (*PurchaseOrder, error)

	// ReversePurchaseOrder removes the lots the order created. Fails with
	// *InUseError once any of them has been drawn from.
	ReversePurchaseOrder(ctx context.Context, orderID int) (*Reversal, error)

	GetPurchaseOrder(ctx context.Context, orderID int) (*PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context) ([]PurchaseOrder, error)
}
