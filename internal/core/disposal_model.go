package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DisposalRecord records stock written off from one lot. Quantity is in the lot unit.
type DisposalRecord struct {
	ID        int             `json:"id"`
	Reference string          `json:"reference"`
	Lot       LotRef          `json:"lot"`
	Item      ItemRef         `json:"item"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      Unit            `json:"unit"`
	Reason    string          `json:"reason"`
	Date      string          `json:"date"` // YYYY-MM-DD
}

// DisposalRequest is the input for Dispose. An empty Unit means the lot's unit.
type DisposalRequest struct {
	Lot      LotRef          `json:"lot"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     Unit            `json:"unit,omitempty"`
	Reason   string          `json:"reason"`
	Date     time.Time       `json:"date"`
}

// DisposalService writes stock off selected lots.
type DisposalService interface {
	Dispose(ctx context.Context, req DisposalRequest) (*DisposalRecord, error)
	ReverseDisposal(ctx context.Context, disposalID int) (*Reversal, error)
	ListDisposals(ctx context.Context) ([]DisposalRecord, error)
}
