// Package store persists the lot ledger in PostgreSQL or SQLite through
// database/sql. Queries are written once with $N placeholders and rebound
// for SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"production-ledger/internal/core"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// Dialect selects the SQL flavour of the underlying database.
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "postgres"
)

// ParseDialect validates a configured driver name.
func ParseDialect(s string) (Dialect, error) {
	switch s {
	case "sqlite3", "sqlite":
		return SQLite, nil
	case "postgres", "pgx", "postgresql":
		return Postgres, nil
	}
	return "", fmt.Errorf("unsupported database driver %q (want sqlite3 or postgres)", s)
}

// Store implements core.Store.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an open database handle.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Dialect returns the dialect the store was opened with.
func (s *Store) Dialect() Dialect { return s.dialect }

// InTx runs fn in one database transaction. fn's error rolls the transaction back.
func (s *Store) InTx(ctx context.Context, fn func(tx core.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&ledgerTx{tx: tx, dialect: s.dialect}); err != nil {
		return translate(err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", translate(err))
	}
	return nil
}

// ledgerTx implements core.Tx over one *sql.Tx.
type ledgerTx struct {
	tx      *sql.Tx
	dialect Dialect
}

var placeholder = regexp.MustCompile(`\$(\d+)`)

// rebind rewrites $N placeholders into SQLite's ?N form.
func (t *ledgerTx) rebind(q string) string {
	if t.dialect == SQLite {
		return placeholder.ReplaceAllString(q, "?$1")
	}
	return q
}

// forUpdate is appended to selects whose rows are about to be adjusted.
// SQLite locks the whole database on write and has no row locks.
func (t *ledgerTx) forUpdate() string {
	if t.dialect == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

func (t *ledgerTx) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.rebind(q), args...)
}

func (t *ledgerTx) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, t.rebind(q), args...)
}

func (t *ledgerTx) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.rebind(q), args...)
}

func (t *ledgerTx) count(ctx context.Context, q string, args ...any) (int, error) {
	var n int
	if err := t.queryRow(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// mustAffect turns an update or delete that matched nothing into ErrNotFound.
func mustAffect(res sql.Result, what string, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, core.ErrNotFound)
	}
	return nil
}

func notFound(err error, what string, id int) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, core.ErrNotFound)
	}
	return fmt.Errorf("get %s %d: %w", what, id, err)
}

// timestamp scans created_at columns. SQLite hands back text when it cannot
// see the declared column type, as with RETURNING.
func timestamp(t *time.Time) sql.Scanner { return (*scanTime)(t) }

type scanTime time.Time

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
}

func (st *scanTime) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case time.Time:
		*st = scanTime(v)
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		*st = scanTime(time.Time{})
		return nil
	default:
		return fmt.Errorf("cannot scan %T into a timestamp", src)
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			*st = scanTime(t)
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", s)
}

// translate maps driver constraint violations to domain errors. The services
// check references before deleting, so these only surface on races or bugs.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &core.ValidationError{Field: pgErr.ConstraintName, Message: "duplicate value: " + pgErr.Detail}
		case "23503":
			return &core.InUseError{Entity: pgErr.TableName, References: []string{pgErr.ConstraintName}}
		}
		return err
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.Code == sqlite3.ErrConstraint {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return &core.ValidationError{Message: "duplicate value: " + liteErr.Error()}
		case sqlite3.ErrConstraintForeignKey:
			return &core.InUseError{Entity: "record", References: []string{liteErr.Error()}}
		}
	}
	return err
}
