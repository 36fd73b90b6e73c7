package core

import (
	"context"
	"time"
)

// PartyKind separates customers from suppliers. Both share one contact shape.
type PartyKind string

const (
	PartyCustomer PartyKind = "CUSTOMER"
	PartySupplier PartyKind = "SUPPLIER"
)

// Contact holds the master data kept for customers and suppliers.
type Contact struct {
	Name         string `json:"name"`
	Address      string `json:"address"`
	ContactEmail string `json:"contact_email"`
	PhoneNumber  string `json:"phone_number"`
	VATNumber    string `json:"vat_number"`
}

// Party is a stored customer or supplier.
type Party struct {
	ID        int       `json:"id"`
	Kind      PartyKind `json:"kind"`
	Contact   `json:"contact"`
	CreatedAt time.Time `json:"created_at"`
}

// PartyService manages customers and suppliers.
type PartyService interface {
	CreateParty(ctx context.Context, kind PartyKind, c Contact) (*Party, error)
	ListParties(ctx context.Context, kind PartyKind) ([]Party, error)

	// DeleteParty fails with *InUseError while orders reference the party.
	DeleteParty(ctx context.Context, kind PartyKind, id int) error
}
