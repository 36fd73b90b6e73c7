package store

import (
	"context"
	"fmt"

	"production-ledger/internal/core"

	"github.com/shopspring/decimal"
)

// tables names the storage of one item kind.
type tables struct {
	items   string // materials | products
	lots    string // material_lots | product_lots
	itemFK  string // column in lots referencing items
	lotCol  string // nullable lot column in component and disposal rows
	compCol string // nullable component column in bom_lines
}

var kindTables = map[core.ItemKind]tables{
	core.KindMaterial: {"materials", "material_lots", "material_id", "material_lot_id", "component_material_id"},
	core.KindProduct:  {"products", "product_lots", "product_id", "product_lot_id", "component_product_id"},
}

func tablesFor(kind core.ItemKind) (tables, error) {
	t, ok := kindTables[kind]
	if !ok {
		return tables{}, &core.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown item kind %q", kind)}
	}
	return t, nil
}

func itemLabel(kind core.ItemKind) string {
	if kind == core.KindProduct {
		return "product"
	}
	return "material"
}

// ── Items ────────────────────────────────────────────────────────────────────

func (t *ledgerTx) CreateItem(ctx context.Context, kind core.ItemKind, name string, unit core.Unit) (*core.Item, error) {
	tb, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	item := &core.Item{Ref: core.ItemRef{Kind: kind}, Name: name, Unit: unit, Quantity: decimal.Zero}
	err = t.queryRow(ctx, `
		INSERT INTO `+tb.items+` (name, unit, quantity)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		name, string(unit), decimal.Zero,
	).Scan(&item.Ref.ID, timestamp(&item.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("create %s %q: %w", itemLabel(kind), name, translate(err))
	}
	return item, nil
}

func (t *ledgerTx) GetItem(ctx context.Context, ref core.ItemRef) (*core.Item, error) {
	tb, err := tablesFor(ref.Kind)
	if err != nil {
		return nil, err
	}
	item := &core.Item{Ref: ref}
	err = t.queryRow(ctx, `
		SELECT name, unit, quantity, created_at
		FROM `+tb.items+`
		WHERE id = $1`,
		ref.ID,
	).Scan(&item.Name, &item.Unit, &item.Quantity, timestamp(&item.CreatedAt))
	if err != nil {
		return nil, notFound(err, itemLabel(ref.Kind), ref.ID)
	}
	return item, nil
}

func (t *ledgerTx) ListItems(ctx context.Context, kind core.ItemKind) ([]core.Item, error) {
	tb, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := t.query(ctx, `
		SELECT id, name, unit, quantity, created_at
		FROM `+tb.items+`
		ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", itemLabel(kind), err)
	}
	defer rows.Close()

	var items []core.Item
	for rows.Next() {
		it := core.Item{Ref: core.ItemRef{Kind: kind}}
		if err := rows.Scan(&it.Ref.ID, &it.Name, &it.Unit, &it.Quantity, timestamp(&it.CreatedAt)); err != nil {
			return nil, fmt.Errorf("scan %s: %w", itemLabel(kind), err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (t *ledgerTx) RenameItem(ctx context.Context, ref core.ItemRef, name string) error {
	tb, err := tablesFor(ref.Kind)
	if err != nil {
		return err
	}
	res, err := t.exec(ctx, `UPDATE `+tb.items+` SET name = $1 WHERE id = $2`, name, ref.ID)
	if err != nil {
		return fmt.Errorf("rename %s: %w", ref, translate(err))
	}
	return mustAffect(res, itemLabel(ref.Kind), ref.ID)
}

func (t *ledgerTx) DeleteItem(ctx context.Context, ref core.ItemRef) error {
	tb, err := tablesFor(ref.Kind)
	if err != nil {
		return err
	}
	res, err := t.exec(ctx, `DELETE FROM `+tb.items+` WHERE id = $1`, ref.ID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", ref, translate(err))
	}
	return mustAffect(res, itemLabel(ref.Kind), ref.ID)
}

// ItemReferences lists every kind of row that still points at the item.
func (t *ledgerTx) ItemReferences(ctx context.Context, ref core.ItemRef) ([]string, error) {
	tb, err := tablesFor(ref.Kind)
	if err != nil {
		return nil, err
	}
	checks := []refCheck{
		{"bill-of-materials line(s)", `SELECT COUNT(*) FROM bom_lines WHERE ` + tb.compCol + ` = $1`},
		{"lot(s)", `SELECT COUNT(*) FROM ` + tb.lots + ` WHERE ` + tb.itemFK + ` = $1`},
	}
	switch ref.Kind {
	case core.KindMaterial:
		checks = append(checks,
			refCheck{"purchase order line(s)", `SELECT COUNT(*) FROM purchase_order_lines WHERE material_id = $1`},
		)
	case core.KindProduct:
		checks = append(checks,
			refCheck{"recipe(s)", `SELECT COUNT(*) FROM recipes WHERE product_id = $1`},
			refCheck{"production order(s)", `SELECT COUNT(*) FROM production_orders WHERE product_id = $1`},
			refCheck{"sales order(s)", `SELECT COUNT(*) FROM sales_orders WHERE product_id = $1`},
		)
	}
	return t.references(ctx, ref.ID, checks)
}

// refCheck counts rows of one kind that reference a record.
type refCheck struct {
	what  string
	query string
}

func (t *ledgerTx) references(ctx context.Context, id int, checks []refCheck) ([]string, error) {
	var refs []string
	for _, c := range checks {
		n, err := t.count(ctx, c.query, id)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", c.what, err)
		}
		if n > 0 {
			refs = append(refs, fmt.Sprintf("%d %s", n, c.what))
		}
	}
	return refs, nil
}

// AdjustItemQuantity reads the aggregate under lock and writes the new value.
func (t *ledgerTx) AdjustItemQuantity(ctx context.Context, ref core.ItemRef, delta decimal.Decimal) error {
	tb, err := tablesFor(ref.Kind)
	if err != nil {
		return err
	}
	var current decimal.Decimal
	err = t.queryRow(ctx, `SELECT quantity FROM `+tb.items+` WHERE id = $1`+t.forUpdate(), ref.ID).Scan(&current)
	if err != nil {
		return notFound(err, itemLabel(ref.Kind), ref.ID)
	}
	next := current.Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("%s: %s adjusted by %s: %w", ref, current.String(), delta.String(), core.ErrNegativeQuantity)
	}
	if _, err := t.exec(ctx, `UPDATE `+tb.items+` SET quantity = $1 WHERE id = $2`, next, ref.ID); err != nil {
		return fmt.Errorf("update %s quantity: %w", ref, err)
	}
	return nil
}

// ── Lots ─────────────────────────────────────────────────────────────────────

const lotColumns = `id, %s, label, quantity, unit, CAST(lot_date AS TEXT)`

func scanLot(kind core.ItemKind, row interface{ Scan(...any) error }) (core.Lot, error) {
	l := core.Lot{Ref: core.LotRef{Kind: kind}, Item: core.ItemRef{Kind: kind}}
	err := row.Scan(&l.Ref.ID, &l.Item.ID, &l.Label, &l.Quantity, &l.Unit, &l.Date)
	return l, err
}

func (t *ledgerTx) InsertLot(ctx context.Context, lot *core.Lot) error {
	tb, err := tablesFor(lot.Item.Kind)
	if err != nil {
		return err
	}
	err = t.queryRow(ctx, `
		INSERT INTO `+tb.lots+` (`+tb.itemFK+`, label, quantity, unit, lot_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		lot.Item.ID, lot.Label, lot.Quantity, string(lot.Unit), lot.Date,
	).Scan(&lot.Ref.ID)
	if err != nil {
		return fmt.Errorf("insert lot for %s: %w", lot.Item, translate(err))
	}
	lot.Ref.Kind = lot.Item.Kind
	return nil
}

func (t *ledgerTx) GetLot(ctx context.Context, ref core.LotRef) (*core.Lot, error) {
	tb, err := tablesFor(ref.Kind)
	if err != nil {
		return nil, err
	}
	row := t.queryRow(ctx, `SELECT `+fmt.Sprintf(lotColumns, tb.itemFK)+` FROM `+tb.lots+` WHERE id = $1`, ref.ID)
	lot, err := scanLot(ref.Kind, row)
	if err != nil {
		return nil, notFound(err, itemLabel(ref.Kind)+" lot", ref.ID)
	}
	return &lot, nil
}

// LotsFor returns lots with stock left, oldest first, locked on PostgreSQL.
func (t *ledgerTx) LotsFor(ctx context.Context, ref core.ItemRef) ([]core.Lot, error) {
	lots, err := t.lotsOf(ctx, ref, true)
	if err != nil {
		return nil, err
	}
	available := lots[:0]
	for _, l := range lots {
		if l.Quantity.IsPositive() {
			available = append(available, l)
		}
	}
	return available, nil
}

func (t *ledgerTx) ListLots(ctx context.Context, ref core.ItemRef) ([]core.Lot, error) {
	return t.lotsOf(ctx, ref, false)
}

func (t *ledgerTx) lotsOf(ctx context.Context, ref core.ItemRef, lock bool) ([]core.Lot, error) {
	tb, err := tablesFor(ref.Kind)
	if err != nil {
		return nil, err
	}
	q := `SELECT ` + fmt.Sprintf(lotColumns, tb.itemFK) + ` FROM ` + tb.lots + `
		WHERE ` + tb.itemFK + ` = $1
		ORDER BY lot_date, id`
	if lock {
		q += t.forUpdate()
	}
	rows, err := t.query(ctx, q, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("query lots of %s: %w", ref, err)
	}
	defer rows.Close()

	var lots []core.Lot
	for rows.Next() {
		l, err := scanLot(ref.Kind, rows)
		if err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		lots = append(lots, l)
	}
	return lots, rows.Err()
}

// AdjustLotQuantity reads the lot under lock and writes the new value.
func (t *ledgerTx) AdjustLotQuantity(ctx context.Context, ref core.LotRef, delta decimal.Decimal) error {
	tb, err := tablesFor(ref.Kind)
	if err != nil {
		return err
	}
	var current decimal.Decimal
	err = t.queryRow(ctx, `SELECT quantity FROM `+tb.lots+` WHERE id = $1`+t.forUpdate(), ref.ID).Scan(&current)
	if err != nil {
		return notFound(err, itemLabel(ref.Kind)+" lot", ref.ID)
	}
	next := current.Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("%s: %s adjusted by %s: %w", ref, current.String(), delta.String(), core.ErrNegativeQuantity)
	}
	if _, err := t.exec(ctx, `UPDATE `+tb.lots+` SET quantity = $1 WHERE id = $2`, next, ref.ID); err != nil {
		return fmt.Errorf("update %s quantity: %w", ref, err)
	}
	return nil
}

func (t *ledgerTx) DeleteLot(ctx context.Context, ref core.LotRef) error {
	tb, err := tablesFor(ref.Kind)
	if err != nil {
		return err
	}
	res, err := t.exec(ctx, `DELETE FROM `+tb.lots+` WHERE id = $1`, ref.ID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", ref, translate(err))
	}
	return mustAffect(res, itemLabel(ref.Kind)+" lot", ref.ID)
}

// LotReferences lists consumption records drawn from the lot. The order
// that created the lot does not count.
func (t *ledgerTx) LotReferences(ctx context.Context, ref core.LotRef) ([]string, error) {
	tb, err := tablesFor(ref.Kind)
	if err != nil {
		return nil, err
	}
	checks := []refCheck{
		{"production component(s)", `SELECT COUNT(*) FROM production_order_components WHERE ` + tb.lotCol + ` = $1`},
		{"disposal(s)", `SELECT COUNT(*) FROM disposals WHERE ` + tb.lotCol + ` = $1`},
	}
	if ref.Kind == core.KindProduct {
		checks = append(checks, refCheck{
			"sales order lot(s)", `SELECT COUNT(*) FROM sales_order_lots WHERE product_lot_id = $1`,
		})
	}
	return t.references(ctx, ref.ID, checks)
}
