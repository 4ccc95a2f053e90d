// Package store provides access to the relational store over database/sql
// with two wired drivers: pgx for PostgreSQL deployments and modernc
// sqlite for local mode and tests. Statement building is dialect-aware
// (placeholders, identifier quoting, schema qualification).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects driver-specific SQL generation.
type Dialect string

// Supported dialects.
const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// driverName returns the database/sql driver name for the dialect.
func (d Dialect) driverName() (string, error) {
	switch d {
	case DialectPostgres:
		return "pgx", nil
	case DialectSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unknown dialect %q", d)
	}
}

// Placeholder returns the 1-based bind placeholder for the dialect.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Quote returns the identifier wrapped in double quotes.
func (d Dialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Options configures Open.
type Options struct {
	Dialect Dialect
	// DSN is a pgx connection string for postgres or a file path (or
	// ":memory:") for sqlite.
	DSN string
	// Schema qualifies table names on postgres (e.g. "network").
	// Ignored by sqlite.
	Schema string
	// ConnectTimeout bounds the connectivity check. Zero means no bound.
	ConnectTimeout time.Duration
}

// Store owns one relational connection pool and its dialect.
type Store struct {
	DB      *sql.DB
	Dialect Dialect
	Schema  string
}

// Open opens the store and verifies connectivity with a ping.
func Open(ctx context.Context, opts Options) (*Store, error) {
	driver, err := opts.Dialect.driverName()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", opts.Dialect, err)
	}

	pingCtx := ctx
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s store: %w", opts.Dialect, err)
	}

	return &Store{DB: db, Dialect: opts.Dialect, Schema: opts.Schema}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// TableRef returns the quoted, schema-qualified table reference.
func (s *Store) TableRef(table string) string {
	if s.Dialect == DialectPostgres && s.Schema != "" {
		return s.Dialect.Quote(s.Schema) + "." + s.Dialect.Quote(table)
	}
	return s.Dialect.Quote(table)
}
