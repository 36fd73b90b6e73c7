package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a material or a product. Quantity is the running aggregate of all
// its lots, expressed in Unit.
type Item struct {
	Ref       ItemRef         `json:"ref"`
	Name      string          `json:"name"`
	Unit      Unit            `json:"unit"`
	Quantity  decimal.Decimal `json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
}

// Lot is a dated, labelled portion of one item's stock, held in its own unit.
// A lot at zero stays on record but is never offered for allocation.
type Lot struct {
	Ref      LotRef          `json:"ref"`
	Item     ItemRef         `json:"item"`
	Label    string          `json:"label"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     Unit            `json:"unit"`
	Date     string          `json:"date"` // YYYY-MM-DD
}

// StockLevel is a read view of an item with all of its lots.
type StockLevel struct {
	Item Item
	Lots []Lot
}

// Discrepancy reports an item whose aggregate differs from the sum of its lots.
type Discrepancy struct {
	Item      Item
	LotTotal  decimal.Decimal // sum of lots converted into the item unit
	Aggregate decimal.Decimal
}

// LedgerDelta is one quantity change applied to an item aggregate or a lot.
// Lot is nil for aggregate changes.
type LedgerDelta struct {
	Item  ItemRef         `json:"item"`
	Lot   *LotRef         `json:"lot,omitempty"`
	Delta decimal.Decimal `json:"delta"`
	Unit  Unit            `json:"unit"`
}
