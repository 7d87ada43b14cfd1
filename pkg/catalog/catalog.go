// Package catalog provides metadata providers for tdiff.
//
// SysCatalog reads the SQL Server system catalog views over a live
// connection. Static serves metadata held in memory, typically loaded from a
// YAML catalog file, so queries can be generated without a server.
package catalog

import "github.com/leapstack-labs/tdiff/pkg/core"

// Provider is an alias for core.MetadataProvider.
type Provider = core.MetadataProvider

// DefaultCapabilities describe SQL Server 2022, assumed for offline catalogs
// that do not declare an engine.
var DefaultCapabilities = core.Capabilities{
	ProductVersion:     "16.0",
	MajorVersion:       16,
	CompatibilityLevel: 160,
}
