package store

import (
	"context"
	"fmt"

	"production-ledger/internal/core"
)

func partyTable(kind core.PartyKind) (table, label string, err error) {
	switch kind {
	case core.PartyCustomer:
		return "customers", "customer", nil
	case core.PartySupplier:
		return "suppliers", "supplier", nil
	}
	return "", "", &core.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown party kind %q", kind)}
}

const partyColumns = `id, name, address, contact_email, phone_number, vat_number, created_at`

func scanParty(kind core.PartyKind, row interface{ Scan(...any) error }) (core.Party, error) {
	p := core.Party{Kind: kind}
	err := row.Scan(&p.ID, &p.Name, &p.Address, &p.ContactEmail, &p.PhoneNumber, &p.VATNumber, timestamp(&p.CreatedAt))
	return p, err
}

func (t *ledgerTx) CreateParty(ctx context.Context, kind core.PartyKind, c core.Contact) (*core.Party, error) {
	table, label, err := partyTable(kind)
	if err != nil {
		return nil, err
	}
	p := &core.Party{Kind: kind, Contact: c}
	err = t.queryRow(ctx, `
		INSERT INTO `+table+` (name, address, contact_email, phone_number, vat_number)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		c.Name, c.Address, c.ContactEmail, c.PhoneNumber, c.VATNumber,
	).Scan(&p.ID, timestamp(&p.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("create %s %q: %w", label, c.Name, translate(err))
	}
	return p, nil
}

func (t *ledgerTx) GetParty(ctx context.Context, kind core.PartyKind, id int) (*core.Party, error) {
	table, label, err := partyTable(kind)
	if err != nil {
		return nil, err
	}
	p, err := scanParty(kind, t.queryRow(ctx, `SELECT `+partyColumns+` FROM `+table+` WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, label, id)
	}
	return &p, nil
}

func (t *ledgerTx) ListParties(ctx context.Context, kind core.PartyKind) ([]core.Party, error) {
	table, label, err := partyTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := t.query(ctx, `SELECT `+partyColumns+` FROM `+table+` ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", label, err)
	}
	defer rows.Close()

	var parties []core.Party
	for rows.Next() {
		p, err := scanParty(kind, rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", label, err)
		}
		parties = append(parties, p)
	}
	return parties, rows.Err()
}

func (t *ledgerTx) DeleteParty(ctx context.Context, kind core.PartyKind, id int) error {
	table, label, err := partyTable(kind)
	if err != nil {
		return err
	}
	res, err := t.exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", label, id, translate(err))
	}
	return mustAffect(res, label, id)
}

func (t *ledgerTx) PartyReferences(ctx context.Context, kind core.PartyKind, id int) ([]string, error) {
	var checks []refCheck
	switch kind {
	case core.PartyCustomer:
		checks = []refCheck{{"sales order(s)", `SELECT COUNT(*) FROM sales_orders WHERE customer_id = $1`}}
	case core.PartySupplier:
		checks = []refCheck{{"purchase order(s)", `SELECT COUNT(*) FROM purchase_orders WHERE supplier_id = $1`}}
	default:
		return nil, &core.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown party kind %q", kind)}
	}
	return t.references(ctx, id, checks)
}
