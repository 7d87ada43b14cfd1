// Package sqlserver provides a Microsoft SQL Server adapter for tdiff.
//
// This file registers the adapter under "sqlserver" and "mssql". Import this
// package with a blank identifier to register it:
//
//	import _ "github.com/leapstack-labs/tdiff/pkg/adapters/sqlserver"
package sqlserver

import (
	"log/slog"

	"github.com/leapstack-labs/tdiff/pkg/adapter"
)

func init() {
	adapter.Register(func(logger *slog.Logger) adapter.Adapter { return New(logger) }, "sqlserver", "mssql")
}
