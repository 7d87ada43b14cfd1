// Package adapter provides the database adapter contract for tdiff and the
// registry of adapter factories.
//
// Concrete adapters live in pkg/adapters/ subdirectories and register
// themselves from init(). Import them with a blank identifier.
package adapter

import (
	"github.com/leapstack-labs/tdiff/pkg/core"
	"github.com/leapstack-labs/tdiff/pkg/dialect"
)

type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)

// Adapter is a connection to a host engine that can run change reports.
// Besides executing SQL it reports the engine capabilities and serves the
// catalog metadata of the connected database.
type Adapter interface {
	core.Adapter

	// Dialect returns the SQL dialect used to quote generated queries.
	Dialect() *dialect.Dialect
}
