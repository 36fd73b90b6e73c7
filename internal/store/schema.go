package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// schema is written once; column types are filled in per dialect.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS suppliers (
		id            {{id}},
		name          TEXT NOT NULL,
		address       TEXT NOT NULL DEFAULT '',
		contact_email TEXT NOT NULL DEFAULT '',
		phone_number  TEXT NOT NULL DEFAULT '',
		vat_number    TEXT NOT NULL DEFAULT '',
		created_at    {{ts}}
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id            {{id}},
		name          TEXT NOT NULL,
		address       TEXT NOT NULL DEFAULT '',
		contact_email TEXT NOT NULL DEFAULT '',
		phone_number  TEXT NOT NULL DEFAULT '',
		vat_number    TEXT NOT NULL DEFAULT '',
		created_at    {{ts}}
	)`,
	`CREATE TABLE IF NOT EXISTS materials (
		id         {{id}},
		name       TEXT NOT NULL UNIQUE,
		unit       TEXT NOT NULL,
		quantity   {{qty}} NOT NULL,
		created_at {{ts}}
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id         {{id}},
		name       TEXT NOT NULL UNIQUE,
		unit       TEXT NOT NULL,
		quantity   {{qty}} NOT NULL,
		created_at {{ts}}
	)`,
	`CREATE TABLE IF NOT EXISTS material_lots (
		id          {{id}},
		material_id INTEGER NOT NULL REFERENCES materials(id),
		label       TEXT NOT NULL,
		quantity    {{qty}} NOT NULL,
		unit        TEXT NOT NULL,
		lot_date    {{date}} NOT NULL,
		created_at  {{ts}}
	)`,
	`CREATE INDEX IF NOT EXISTS idx_material_lots_material ON material_lots (material_id)`,
	`CREATE TABLE IF NOT EXISTS product_lots (
		id         {{id}},
		product_id INTEGER NOT NULL REFERENCES products(id),
		label      TEXT NOT NULL,
		quantity   {{qty}} NOT NULL,
		unit       TEXT NOT NULL,
		lot_date   {{date}} NOT NULL,
		created_at {{ts}}
	)`,
	`CREATE INDEX IF NOT EXISTS idx_product_lots_product ON product_lots (product_id)`,
	`CREATE TABLE IF NOT EXISTS recipes (
		id              {{id}},
		product_id      INTEGER NOT NULL UNIQUE REFERENCES products(id),
		method          TEXT NOT NULL DEFAULT '',
		output_quantity {{qty}} NOT NULL,
		created_at      {{ts}}
	)`,
	`CREATE TABLE IF NOT EXISTS bom_lines (
		id                    {{id}},
		recipe_id             INTEGER NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
		component_material_id INTEGER REFERENCES materials(id),
		component_product_id  INTEGER REFERENCES products(id),
		quantity_required     {{qty}} NOT NULL,
		unit                  TEXT NOT NULL,
		CHECK ((component_material_id IS NULL) <> (component_product_id IS NULL))
	)`,
	`CREATE TABLE IF NOT EXISTS production_orders (
		id            {{id}},
		reference     TEXT NOT NULL UNIQUE,
		product_id    INTEGER NOT NULL REFERENCES products(id),
		quantity      {{qty}} NOT NULL,
		batch_label   TEXT NOT NULL,
		output_lot_id INTEGER NOT NULL REFERENCES product_lots(id),
		order_date    {{date}} NOT NULL,
		status        TEXT NOT NULL,
		created_at    {{ts}}
	)`,
	`CREATE TABLE IF NOT EXISTS production_order_components (
		id                  {{id}},
		production_order_id INTEGER NOT NULL REFERENCES production_orders(id) ON DELETE CASCADE,
		material_lot_id     INTEGER REFERENCES material_lots(id),
		product_lot_id      INTEGER REFERENCES product_lots(id),
		quantity_used       {{qty}} NOT NULL,
		unit                TEXT NOT NULL,
		CHECK ((material_lot_id IS NULL) <> (product_lot_id IS NULL))
	)`,
	`CREATE TABLE IF NOT EXISTS sales_orders (
		id          {{id}},
		reference   TEXT NOT NULL UNIQUE,
		customer_id INTEGER NOT NULL REFERENCES customers(id),
		product_id  INTEGER NOT NULL REFERENCES products(id),
		quantity    {{qty}} NOT NULL,
		unit        TEXT NOT NULL,
		order_date  {{date}} NOT NULL,
		status      TEXT NOT NULL,
		created_at  {{ts}}
	)`,
	`CREATE TABLE IF NOT EXISTS sales_order_lots (
		id             {{id}},
		sales_order_id INTEGER NOT NULL REFERENCES sales_orders(id) ON DELETE CASCADE,
		product_lot_id INTEGER NOT NULL REFERENCES product_lots(id),
		quantity_used  {{qty}} NOT NULL,
		unit           TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS purchase_orders (
		id          {{id}},
		reference   TEXT NOT NULL UNIQUE,
		supplier_id INTEGER NOT NULL REFERENCES suppliers(id),
		order_date  {{date}} NOT NULL,
		created_at  {{ts}}
	)`,
	`CREATE TABLE IF NOT EXISTS purchase_order_lines (
		id                {{id}},
		purchase_order_id INTEGER NOT NULL REFERENCES purchase_orders(id) ON DELETE CASCADE,
		material_id       INTEGER NOT NULL REFERENCES materials(id),
		material_lot_id   INTEGER NOT NULL REFERENCES material_lots(id),
		batch_label       TEXT NOT NULL,
		quantity          {{qty}} NOT NULL,
		unit              TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS disposals (
		id              {{id}},
		reference       TEXT NOT NULL UNIQUE,
		material_lot_id INTEGER REFERENCES material_lots(id),
		product_lot_id  INTEGER REFERENCES product_lots(id),
		quantity        {{qty}} NOT NULL,
		unit            TEXT NOT NULL,
		reason          TEXT NOT NULL,
		disposal_date   {{date}} NOT NULL,
		created_at      {{ts}},
		CHECK ((material_lot_id IS NULL) <> (product_lot_id IS NULL))
	)`,
}

// Quantities are TEXT in SQLite so decimals round-trip without float affinity.
var columnTypes = map[Dialect]*strings.Replacer{
	Postgres: strings.NewReplacer(
		"{{id}}", "SERIAL PRIMARY KEY",
		"{{qty}}", "NUMERIC",
		"{{date}}", "DATE",
		"{{ts}}", "TIMESTAMPTZ NOT NULL DEFAULT now()",
	),
	SQLite: strings.NewReplacer(
		"{{id}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{qty}}", "TEXT",
		"{{date}}", "TEXT",
		"{{ts}}", "TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP",
	),
}

// migrationLock serializes concurrent Migrate calls on PostgreSQL.
const migrationLock = 7462839

// Migrate creates any missing tables. It is safe to run repeatedly.
func (s *Store) Migrate(ctx context.Context) error {
	r, ok := columnTypes[s.dialect]
	if !ok {
		return fmt.Errorf("migrate: unsupported dialect %q", s.dialect)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if s.dialect == Postgres {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLock); err != nil {
			return fmt.Errorf("migrate: failed to acquire lock: %w", err)
		}
	}
	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, r.Replace(stmt)); err != nil {
			return fmt.Errorf("migrate: statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: failed to commit: %w", err)
	}

	log.Info().Str("dialect", string(s.dialect)).Int("statements", len(schema)).Msg("schema up to date")
	return nil
}
