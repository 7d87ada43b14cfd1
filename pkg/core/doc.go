// Package core defines the shared language of tdiff.
//
// This package contains:
//   - Catalog records (CatalogTable, CatalogColumn, ForeignKey)
//   - Resolved entities (TableRef, ColumnInfo)
//   - The caller contract (Request, Labels, Direction)
//   - Service interfaces (Adapter, MetadataProvider, CapabilityReader)
//   - Configuration types (TargetConfig, AdapterConfig, IdentifierQuoting)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
