package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type disposalService struct {
	store Store
}

// NewDisposalService constructs a DisposalService over store.
func NewDisposalService(store Store) DisposalService {
	return &disposalService{store: store}
}

// Dispose writes req.Quantity off one lot. The amount may not exceed what
// the lot holds.
func (s *disposalService) Dispose(ctx context.Context, req DisposalRequest) (*DisposalRecord, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, &ValidationError{Field: "reason", Message: "is required"}
	}
	if !req.Quantity.IsPositive() {
		return nil, &ValidationError{Field: "quantity", Message: "must be greater than zero"}
	}

	var rec *DisposalRecord
	err := s.store.InTx(ctx, func(tx Tx) error {
		lot, err := tx.GetLot(ctx, req.Lot)
		if err != nil {
			return err
		}
		unit := req.Unit
		if unit == "" {
			unit = lot.Unit
		}
		amount, err := Convert(req.Quantity, unit, lot.Unit)
		if err != nil {
			return &ValidationError{Field: "unit", Message: err.Error()}
		}
		if amount.GreaterThan(lot.Quantity) {
			return &ValidationError{
				Field: "quantity",
				Message: fmt.Sprintf("%s %s exceeds the %s %s held by %s %q",
					amount.StringFixed(4), lot.Unit, lot.Quantity.StringFixed(4), lot.Unit, lot.Ref, lot.Label),
			}
		}
		item, err := tx.GetItem(ctx, lot.Item)
		if err != nil {
			return err
		}

		w := &ledgerWriter{tx: tx}
		if err := w.moveLot(ctx, *lot, item, amount.Neg()); err != nil {
			return err
		}
		rec = &DisposalRecord{
			Reference: uuid.NewString(),
			Lot:       lot.Ref,
			Item:      lot.Item,
			Quantity:  amount,
			Unit:      lot.Unit,
			Reason:    reason,
			Date:      formatDate(req.Date),
		}
		if err := tx.InsertDisposal(ctx, rec); err != nil {
			return fmt.Errorf("insert disposal: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("disposal_id", rec.ID).
		Str("lot", rec.Lot.String()).
		Str("quantity", rec.Quantity.String()).
		Str("unit", string(rec.Unit)).
		Str("reason", rec.Reason).
		Msg("lot disposal recorded")
	return rec, nil
}

func (s *disposalService) ReverseDisposal(ctx context.Context, disposalID int) (*Reversal, error) {
	return reverseInTx(ctx, s.store, OrderRef{Kind: OrderDisposal, ID: disposalID})
}

func (s *disposalService) ListDisposals(ctx context.Context) ([]DisposalRecord, error) {
	var recs []DisposalRecord
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		recs, err = tx.ListDisposals(ctx)
		return err
	})
	return recs, err
}
