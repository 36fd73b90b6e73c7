package core

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog/log"
)

type partyService struct {
	store Store
}

// NewPartyService constructs a PartyService over store.
func NewPartyService(store Store) PartyService {
	return &partyService{store: store}
}

// CreateParty stores a customer or supplier. Only the name is required; an
// email, when given, must parse as an address.
func (s *partyService) CreateParty(ctx context.Context, kind PartyKind, c Contact) (*Party, error) {
	if kind != PartyCustomer && kind != PartySupplier {
		return nil, &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown party kind %q", kind)}
	}
	c.Name = strings.TrimSpace(c.Name)
	c.Address = strings.TrimSpace(c.Address)
	c.ContactEmail = strings.TrimSpace(c.ContactEmail)
	c.PhoneNumber = strings.TrimSpace(c.PhoneNumber)
	c.VATNumber = strings.TrimSpace(c.VATNumber)
	if c.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "is required"}
	}
	if c.ContactEmail != "" {
		if _, err := mail.ParseAddress(c.ContactEmail); err != nil {
			return nil, &ValidationError{Field: "contact_email", Message: fmt.Sprintf("%q is not an email address", c.ContactEmail)}
		}
	}

	var p *Party
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		p, err = tx.CreateParty(ctx, kind, c)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create %s %q: %w", strings.ToLower(string(kind)), c.Name, err)
	}
	log.Info().Str("kind", string(kind)).Int("id", p.ID).Str("name", p.Name).Msg("party created")
	return p, nil
}

func (s *partyService) ListParties(ctx context.Context, kind PartyKind) ([]Party, error) {
	var parties []Party
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		parties, err = tx.ListParties(ctx, kind)
		return err
	})
	return parties, err
}

func (s *partyService) DeleteParty(ctx context.Context, kind PartyKind, id int) error {
	return s.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetParty(ctx, kind, id); err != nil {
			return err
		}
		refs, err := tx.PartyReferences(ctx, kind, id)
		if err != nil {
			return err
		}
		if len(refs) > 0 {
			return &InUseError{Entity: strings.ToLower(string(kind)), ID: id, References: refs}
		}
		return tx.DeleteParty(ctx, kind, id)
	})
}
