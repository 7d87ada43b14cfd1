package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/tdiff/pkg/core"
)

// ErrNotConnected is returned by BaseSQLAdapter methods before Connect.
var ErrNotConnected = errors.New("database connection not established")

// Pool limits. A run issues its catalog reads and the report query one after
// another, so one idle connection saves a login per query.
const (
	maxOpenConns = 2
	maxIdleConns = 1
)

// BaseSQLAdapter holds a database/sql pool for adapters built on it.
// Embed it in a concrete adapter to get Close, Query and QueryContext.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger
}

// Open opens a pool for driverName and verifies it with Attach.
func (b *BaseSQLAdapter) Open(ctx context.Context, driverName, dsn string) error {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("open %s connection: %w", driverName, err)
	}
	return b.Attach(ctx, db)
}

// Attach applies the pool limits, pings db and adopts it. On failure db is
// closed.
func (b *BaseSQLAdapter) Attach(ctx context.Context, db *sql.DB) error {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	b.DB = db
	return nil
}

// Close closes the pool. Calling it twice is harmless.
func (b *BaseSQLAdapter) Close() error {
	if b.DB == nil {
		return nil
	}
	b.log().Debug("closing database connection")
	err := b.DB.Close()
	b.DB = nil
	return err
}

// Query runs a report query.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string) (*core.Rows, error) {
	rows, err := b.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &core.Rows{Rows: rows}, nil
}

// QueryContext runs a parameterized query. It lets catalog readers share the
// adapter's connection, including before Connect has been called.
func (b *BaseSQLAdapter) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	return b.DB.QueryContext(ctx, query, args...)
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

func (b *BaseSQLAdapter) log() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}
