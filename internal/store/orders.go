package store

import (
	"context"
	"database/sql"
	"fmt"

	"production-ledger/internal/core"
)

// lotColumnsFor splits a lot reference into the (material_lot_id,
// product_lot_id) pair used by component and disposal rows.
func lotColumnsFor(ref core.LotRef) (material, product sql.NullInt64, err error) {
	switch ref.Kind {
	case core.KindMaterial:
		material = sql.NullInt64{Int64: int64(ref.ID), Valid: true}
	case core.KindProduct:
		product = sql.NullInt64{Int64: int64(ref.ID), Valid: true}
	default:
		err = &core.ValidationError{Field: "lot", Message: fmt.Sprintf("unknown item kind %q", ref.Kind)}
	}
	return material, product, err
}

func lotRefFrom(material, product sql.NullInt64) core.LotRef {
	if material.Valid {
		return core.LotRef{Kind: core.KindMaterial, ID: int(material.Int64)}
	}
	return core.LotRef{Kind: core.KindProduct, ID: int(product.Int64)}
}

// ── Production orders ────────────────────────────────────────────────────────

func (t *ledgerTx) InsertProductionOrder(ctx context.Context, o *core.ProductionOrder) error {
	err := t.queryRow(ctx, `
		INSERT INTO production_orders (reference, product_id, quantity, batch_label, output_lot_id, order_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		o.Reference, o.ProductID, o.Quantity, o.BatchLabel, o.OutputLotID, o.Date, string(o.Status),
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert production order: %w", translate(err))
	}
	return nil
}

func (t *ledgerTx) InsertProductionComponent(ctx context.Context, c *core.ProductionOrderComponent) error {
	material, product, err := lotColumnsFor(c.Lot)
	if err != nil {
		return err
	}
	err = t.queryRow(ctx, `
		INSERT INTO production_order_components (production_order_id, material_lot_id, product_lot_id, quantity_used, unit)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		c.ProductionOrderID, material, product, c.QuantityUsed, string(c.Unit),
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert component of production order %d: %w", c.ProductionOrderID, translate(err))
	}
	return nil
}

const productionColumns = `id, reference, product_id, quantity, batch_label, output_lot_id, CAST(order_date AS TEXT), status`

func scanProductionOrder(row interface{ Scan(...any) error }) (core.ProductionOrder, error) {
	var o core.ProductionOrder
	err := row.Scan(&o.ID, &o.Reference, &o.ProductID, &o.Quantity, &o.BatchLabel, &o.OutputLotID, &o.Date, &o.Status)
	return o, err
}

// GetProductionOrder returns the order with its consumed components.
func (t *ledgerTx) GetProductionOrder(ctx context.Context, id int) (*core.ProductionOrder, error) {
	o, err := scanProductionOrder(t.queryRow(ctx,
		`SELECT `+productionColumns+` FROM production_orders WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "production order", id)
	}

	rows, err := t.query(ctx, `
		SELECT id, material_lot_id, product_lot_id, quantity_used, unit
		FROM production_order_components
		WHERE production_order_id = $1
		ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query components of production order %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		c := core.ProductionOrderComponent{ProductionOrderID: id}
		var material, product sql.NullInt64
		if err := rows.Scan(&c.ID, &material, &product, &c.QuantityUsed, &c.Unit); err != nil {
			return nil, fmt.Errorf("scan production component: %w", err)
		}
		c.Lot = lotRefFrom(material, product)
		o.Components = append(o.Components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListProductionOrders returns order headers, newest first.
func (t *ledgerTx) ListProductionOrders(ctx context.Context) ([]core.ProductionOrder, error) {
	rows, err := t.query(ctx, `SELECT `+productionColumns+` FROM production_orders ORDER BY order_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list production orders: %w", err)
	}
	defer rows.Close()

	var orders []core.ProductionOrder
	for rows.Next() {
		o, err := scanProductionOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan production order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (t *ledgerTx) SetProductionOrderStatus(ctx context.Context, id int, status core.OrderStatus) error {
	res, err := t.exec(ctx, `UPDATE production_orders SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("update production order %d status: %w", id, err)
	}
	return mustAffect(res, "production order", id)
}

// DeleteProductionOrder removes the order and its component rows.
func (t *ledgerTx) DeleteProductionOrder(ctx context.Context, id int) error {
	if _, err := t.exec(ctx, `DELETE FROM production_order_components WHERE production_order_id = $1`, id); err != nil {
		return fmt.Errorf("delete components of production order %d: %w", id, err)
	}
	res, err := t.exec(ctx, `DELETE FROM production_orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete production order %d: %w", id, translate(err))
	}
	return mustAffect(res, "production order", id)
}

// ── Sales orders ─────────────────────────────────────────────────────────────

func (t *ledgerTx) InsertSalesOrder(ctx context.Context, o *core.SalesOrder) error {
	err := t.queryRow(ctx, `
		INSERT INTO sales_orders (reference, customer_id, product_id, quantity, unit, order_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		o.Reference, o.CustomerID, o.ProductID, o.Quantity, string(o.Unit), o.Date, string(o.Status),
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert sales order: %w", translate(err))
	}
	return nil
}

func (t *ledgerTx) InsertSalesOrderLot(ctx context.Context, l *core.SalesOrderLot) error {
	err := t.queryRow(ctx, `
		INSERT INTO sales_order_lots (sales_order_id, product_lot_id, quantity_used, unit)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		l.SalesOrderID, l.LotID, l.QuantityUsed, string(l.Unit),
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("insert lot of sales order %d: %w", l.SalesOrderID, translate(err))
	}
	return nil
}

const salesColumns = `id, reference, customer_id, product_id, quantity, unit, CAST(order_date AS TEXT), status`

func scanSalesOrder(row interface{ Scan(...any) error }) (core.SalesOrder, error) {
	var o core.SalesOrder
	err := row.Scan(&o.ID, &o.Reference, &o.CustomerID, &o.ProductID, &o.Quantity, &o.Unit, &o.Date, &o.Status)
	return o, err
}

func (t *ledgerTx) GetSalesOrder(ctx context.Context, id int) (*core.SalesOrder, error) {
	o, err := scanSalesOrder(t.queryRow(ctx, `SELECT `+salesColumns+` FROM sales_orders WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "sales order", id)
	}

	rows, err := t.query(ctx, `
		SELECT id, product_lot_id, quantity_used, unit
		FROM sales_order_lots
		WHERE sales_order_id = $1
		ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query lots of sales order %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		l := core.SalesOrderLot{SalesOrderID: id}
		if err := rows.Scan(&l.ID, &l.LotID, &l.QuantityUsed, &l.Unit); err != nil {
			return nil, fmt.Errorf("scan sales order lot: %w", err)
		}
		o.Lots = append(o.Lots, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (t *ledgerTx) ListSalesOrders(ctx context.Context) ([]core.SalesOrder, error) {
	rows, err := t.query(ctx, `SELECT `+salesColumns+` FROM sales_orders ORDER BY order_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sales orders: %w", err)
	}
	defer rows.Close()

	var orders []core.SalesOrder
	for rows.Next() {
		o, err := scanSalesOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sales order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (t *ledgerTx) SetSalesOrderStatus(ctx context.Context, id int, status core.OrderStatus) error {
	res, err := t.exec(ctx, `UPDATE sales_orders SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("update sales order %d status: %w", id, err)
	}
	return mustAffect(res, "sales order", id)
}

func (t *ledgerTx) DeleteSalesOrder(ctx context.Context, id int) error {
	if _, err := t.exec(ctx, `DELETE FROM sales_order_lots WHERE sales_order_id = $1`, id); err != nil {
		return fmt.Errorf("delete lots of sales order %d: %w", id, err)
	}
	res, err := t.exec(ctx, `DELETE FROM sales_orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete sales order %d: %w", id, translate(err))
	}
	return mustAffect(res, "sales order", id)
}

// ── Purchase orders ──────────────────────────────────────────────────────────

func (t *ledgerTx) InsertPurchaseOrder(ctx context.Context, o *core.PurchaseOrder) error {
	err := t.queryRow(ctx, `
		INSERT INTO purchase_orders (reference, supplier_id, order_date)
		VALUES ($1, $2, $3)
		RETURNING id`,
		o.Reference, o.SupplierID, o.Date,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert purchase order: %w", translate(err))
	}
	return nil
}

func (t *ledgerTx) InsertPurchaseOrderLine(ctx context.Context, l *core.PurchaseOrderLine) error {
	err := t.queryRow(ctx, `
		INSERT INTO purchase_order_lines (purchase_order_id, material_id, material_lot_id, batch_label, quantity, unit)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		l.PurchaseOrderID, l.MaterialID, l.LotID, l.BatchLabel, l.Quantity, string(l.Unit),
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("insert line of purchase order %d: %w", l.PurchaseOrderID, translate(err))
	}
	return nil
}

const purchaseColumns = `id, reference, supplier_id, CAST(order_date AS TEXT)`

func scanPurchaseOrder(row interface{ Scan(...any) error }) (core.PurchaseOrder, error) {
	var o core.PurchaseOrder
	err := row.Scan(&o.ID, &o.Reference, &o.SupplierID, &o.Date)
	return o, err
}

func (t *ledgerTx) GetPurchaseOrder(ctx context.Context, id int) (*core.PurchaseOrder, error) {
	o, err := scanPurchaseOrder(t.queryRow(ctx, `SELECT `+purchaseColumns+` FROM purchase_orders WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "purchase order", id)
	}

	rows, err := t.query(ctx, `
		SELECT id, material_id, material_lot_id, batch_label, quantity, unit
		FROM purchase_order_lines
		WHERE purchase_order_id = $1
		ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query lines of purchase order %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		l := core.PurchaseOrderLine{PurchaseOrderID: id}
		if err := rows.Scan(&l.ID, &l.MaterialID, &l.LotID, &l.BatchLabel, &l.Quantity, &l.Unit); err != nil {
			return nil, fmt.Errorf("scan purchase order line: %w", err)
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (t *ledgerTx) ListPurchaseOrders(ctx context.Context) ([]core.PurchaseOrder, error) {
	rows, err := t.query(ctx, `SELECT `+purchaseColumns+` FROM purchase_orders ORDER BY order_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()

	var orders []core.PurchaseOrder
	for rows.Next() {
		o, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (t *ledgerTx) DeletePurchaseOrder(ctx context.Context, id int) error {
	if _, err := t.exec(ctx, `DELETE FROM purchase_order_lines WHERE purchase_order_id = $1`, id); err != nil {
		return fmt.Errorf("delete lines of purchase order %d: %w", id, err)
	}
	res, err := t.exec(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete purchase order %d: %w", id, translate(err))
	}
	return mustAffect(res, "purchase order", id)
}

// ── Disposals ────────────────────────────────────────────────────────────────

func (t *ledgerTx) InsertDisposal(ctx context.Context, d *core.DisposalRecord) error {
	material, product, err := lotColumnsFor(d.Lot)
	if err != nil {
		return err
	}
	err = t.queryRow(ctx, `
		INSERT INTO disposals (reference, material_lot_id, product_lot_id, quantity, unit, reason, disposal_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		d.Reference, material, product, d.Quantity, string(d.Unit), d.Reason, d.Date,
	).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("insert disposal: %w", translate(err))
	}
	return nil
}

// The owning item is read through the lot so the record carries both refs.
const disposalSelect = `
	SELECT d.id, d.reference, d.material_lot_id, d.product_lot_id, ml.material_id, pl.product_id,
	       d.quantity, d.unit, d.reason, CAST(d.disposal_date AS TEXT)
	FROM disposals d
	LEFT JOIN material_lots ml ON ml.id = d.material_lot_id
	LEFT JOIN product_lots pl ON pl.id = d.product_lot_id`

func scanDisposal(row interface{ Scan(...any) error }) (core.DisposalRecord, error) {
	var d core.DisposalRecord
	var materialLot, productLot, material, product sql.NullInt64
	err := row.Scan(&d.ID, &d.Reference, &materialLot, &productLot, &material, &product,
		&d.Quantity, &d.Unit, &d.Reason, &d.Date)
	if err != nil {
		return d, err
	}
	d.Lot = lotRefFrom(materialLot, productLot)
	if material.Valid {
		d.Item = core.MaterialRef(int(material.Int64))
	} else {
		d.Item = core.ProductRef(int(product.Int64))
	}
	return d, nil
}

func (t *ledgerTx) GetDisposal(ctx context.Context, id int) (*core.DisposalRecord, error) {
	d, err := scanDisposal(t.queryRow(ctx, disposalSelect+` WHERE d.id = $1`, id))
	if err != nil {
		return nil, notFound(err, "disposal", id)
	}
	return &d, nil
}

func (t *ledgerTx) ListDisposals(ctx context.Context) ([]core.DisposalRecord, error) {
	rows, err := t.query(ctx, disposalSelect+` ORDER BY d.disposal_date DESC, d.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list disposals: %w", err)
	}
	defer rows.Close()

	var out []core.DisposalRecord
	for rows.Next() {
		d, err := scanDisposal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan disposal: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (t *ledgerTx) DeleteDisposal(ctx context.Context, id int) error {
	res, err := t.exec(ctx, `DELETE FROM disposals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete disposal %d: %w", id, translate(err))
	}
	return mustAffect(res, "disposal", id)
}
