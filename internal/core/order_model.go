package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SalesOrder records a sale of one product to a customer. Quantity is in the
// sale unit; Lots lists the product lots the sale drew from.
type SalesOrder struct {
	ID         int             `json:"id"`
	Reference  string          `json:"reference"`
	CustomerID int             `json:"customer_id"`
	ProductID  int             `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       Unit            `json:"unit"`
	Date       string          `json:"date"` // YYYY-MM-DD
	Status     OrderStatus     `json:"status"`
	Lots       []SalesOrderLot `json:"lots"`
}

// SalesOrderLot records how much of one product lot a sale consumed, in the sale unit.
type SalesOrderLot struct {
	ID           int             `json:"id"`
	SalesOrderID int             `json:"sales_order_id"`
	LotID        int             `json:"lot_id"`
	QuantityUsed decimal.Decimal `json:"quantity_used"`
	Unit         Unit            `json:"unit"`
}

// SaleRequest is the input for CreateSale. Allocations is only accepted under
// the manual allocation policy.
type SaleRequest struct {
	CustomerID  int                `json:"customer_id"`
	ProductID   int                `json:"product_id"`
	Quantity    decimal.Decimal    `json:"quantity"`
	Unit        Unit               `json:"unit"`
	Date        time.Time          `json:"date"`
	Status      OrderStatus        `json:"status,omitempty"`
	Allocations []AllocationChoice `json:"allocations,omitempty"`
}

// SalesService sells finished products from product lots.
type SalesService interface {
	// CreateSale checks the product aggregate, draws the quantity from product
	// lots and records the order.
	CreateSale(ctx context.Context, req SaleRequest) (*SalesOrder, error)

	// ReverseSale returns the sold quantity to the lots it came from and deletes the order.
	ReverseSale(ctx context.Context, orderID int) (*Reversal, error)

	GetSalesOrder(ctx context.Context, orderID int) (*SalesOrder, error)
	ListSalesOrders(ctx context.Context) ([]SalesOrder, error)
	UpdateSalesOrderStatus(ctx context.Context, orderID int, status OrderStatus) error
}
