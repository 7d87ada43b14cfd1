// Package engine runs change reports: it validates a request, checks the
// host engine, resolves and classifies the target table, synthesizes the
// query and either returns its text or executes it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/tdiff/pkg/adapter"
	"github.com/leapstack-labs/tdiff/pkg/catalog"
	"github.com/leapstack-labs/tdiff/pkg/core"
	"github.com/leapstack-labs/tdiff/pkg/dialect"
)

// ErrNoTarget is returned when a report must run against a server but no
// target connection is configured.
var ErrNoTarget = errors.New("no target connection configured")

// Engine orchestrates change reports.
type Engine struct {
	// Database adapter (lazy initialized)
	db          adapter.Adapter
	dbConfig    *adapter.Config
	dbConnected bool
	dbMu        sync.Mutex

	// Offline metadata; nil means the adapter's catalog is used.
	provider  core.MetadataProvider
	capReader core.CapabilityReader

	dialect *dialect.Dialect
	// schema is used for table names given without one.
	schema string
	logger *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// AdapterConfig describes the target server. Optional with CatalogPath
	// when only query text is wanted.
	AdapterConfig *adapter.Config
	// CatalogPath is an offline YAML catalog. When set, metadata and
	// capabilities come from the file instead of the server.
	CatalogPath string
	// Adapter is an already connected adapter, used instead of AdapterConfig.
	Adapter adapter.Adapter
	// Provider and CapReader override the metadata source.
	Provider  core.MetadataProvider
	CapReader core.CapabilityReader
	// Schema is used for table names given without one. Defaults to the
	// AdapterConfig schema, then the dialect's.
	Schema string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates a new engine with lazy database connection.
// The database adapter is only connected when a server is actually needed.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	e := &Engine{
		dbConfig:  cfg.AdapterConfig,
		provider:  cfg.Provider,
		capReader: cfg.CapReader,
		dialect:   dialect.TSQL,
		logger:    logger,
	}

	if cfg.Adapter != nil {
		e.db = cfg.Adapter
		e.dbConnected = true
		e.dialect = cfg.Adapter.Dialect()
	}

	if cfg.CatalogPath != "" && e.provider == nil {
		static, err := catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		e.provider = static
		if e.capReader == nil {
			e.capReader = static
		}
		logger.Debug("using offline catalog", slog.String("path", cfg.CatalogPath), slog.Int("tables", len(static.Tables())))
	}

	e.schema = cfg.Schema
	if e.schema == "" && e.dbConfig != nil {
		e.schema = e.dbConfig.Schema
	}
	if e.dbConfig != nil && e.db == nil {
		if d, ok := dialect.Get(e.dbConfig.Type); ok {
			e.dialect = d
		}
	}

	return e, nil
}

// ensureDBConnected lazily connects to the database.
func (e *Engine) ensureDBConnected(ctx context.Context) error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.dbConnected {
		return nil
	}
	if e.dbConfig == nil {
		return ErrNoTarget
	}

	e.logger.Debug("connecting to database",
		slog.String("adapter_type", e.dbConfig.Type),
		slog.String("endpoint", e.dbConfig.Endpoint()))

	db, err := adapter.NewAdapter(*e.dbConfig, e.logger)
	if err != nil {
		return fmt.Errorf("failed to create database adapter: %w", err)
	}

	if err := db.Connect(ctx, *e.dbConfig); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	e.db = db
	e.dbConnected = true
	e.dialect = db.Dialect()

	e.logger.Debug("database connected", slog.String("dialect", e.dialect.Name))
	return nil
}

// metadata returns the metadata provider, connecting when it is the server.
func (e *Engine) metadata(ctx context.Context) (core.MetadataProvider, error) {
	if e.provider != nil {
		return e.provider, nil
	}
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}
	return e.db.Metadata(), nil
}

// Capabilities reports the host engine capabilities.
func (e *Engine) Capabilities(ctx context.Context) (core.Capabilities, error) {
	if e.capReader != nil {
		return e.capReader.Capabilities(ctx)
	}
	if err := e.ensureDBConnected(ctx); err != nil {
		return core.Capabilities{}, err
	}
	return e.db.Capabilities(ctx)
}

// Check reads the host engine capabilities and returns a *core.CapabilityError when it
// cannot run change reports.
func (e *Engine) Check(ctx context.Context) (core.Capabilities, error) {
	caps, err := e.Capabilities(ctx)
	if err != nil {
		return caps, fmt.Errorf("capability check: %w", err)
	}
	return caps, caps.Check()
}

// Dialect returns the SQL dialect of the target.
func (e *Engine) Dialect() *dialect.Dialect {
	return e.dialect
}

// Close releases all resources.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")

	e.dbMu.Lock()
	defer e.dbMu.Unlock()
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			return fmt.Errorf("errors closing engine: %w", err)
		}
	}
	return nil
}
