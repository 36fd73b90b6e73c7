package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"production-ledger/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// NewPool connects to PostgreSQL and verifies the connection.
func NewPool(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	if connStr == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse DATABASE_URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}

// Open returns a database/sql handle for the dialect. PostgreSQL handles are
// backed by a pgx pool; SQLite handles enforce foreign keys and use a single
// connection so in-memory databases are shared by every transaction.
func Open(ctx context.Context, dialect store.Dialect, url string) (*sql.DB, error) {
	switch dialect {
	case store.Postgres:
		pool, err := NewPool(ctx, url)
		if err != nil {
			return nil, err
		}
		return stdlib.OpenDBFromPool(pool), nil

	case store.SQLite:
		db, err := sql.Open("sqlite3", sqliteDSN(url))
		if err != nil {
			return nil, fmt.Errorf("unable to open sqlite database: %w", err)
		}
		db.SetMaxOpenConns(1)
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("unable to ping database: %w", err)
		}
		return db, nil
	}
	return nil, fmt.Errorf("unsupported dialect %q", dialect)
}

func sqliteDSN(url string) string {
	if strings.Contains(url, "_foreign_keys=") {
		return url
	}
	if strings.Contains(url, "?") {
		return url + "&_foreign_keys=on"
	}
	return url + "?_foreign_keys=on"
}
