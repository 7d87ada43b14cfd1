package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/leapstack-labs/tdiff/pkg/core"
)

// Static is an in-memory metadata provider.
type Static struct {
	caps   core.Capabilities
	tables []staticTable
}

type staticTable struct {
	table   core.CatalogTable
	columns []core.CatalogColumn
	fks     []core.ForeignKey
}

// NewStatic creates an empty Static catalog reporting the given capabilities.
func NewStatic(caps core.Capabilities) *Static {
	return &Static{caps: caps}
}

// AddTable registers a table. ObjectID is assigned when zero. Foreign keys
// referencing tables not yet added are linked by ResolveReferences.
func (s *Static) AddTable(t core.CatalogTable, columns []core.CatalogColumn, fks []core.ForeignKey) core.CatalogTable {
	if t.ObjectID == 0 {
		t.ObjectID = int64(len(s.tables)+1) * 100
	}
	for i := range columns {
		if columns[i].ColumnID == 0 {
			columns[i].ColumnID = i + 1
		}
	}
	for i := range fks {
		fks[i].ParentObjectID = t.ObjectID
	}
	s.tables = append(s.tables, staticTable{table: t, columns: columns, fks: fks})
	return t
}

// ResolveReferences fills RefObjectID on every foreign key whose referenced
// table is present. Unknown references are left at zero.
func (s *Static) ResolveReferences() {
	for i := range s.tables {
		for j := range s.tables[i].fks {
			fk := &s.tables[i].fks[j]
			if ref := s.find(fk.RefSchema, fk.RefTable); ref != nil {
				fk.RefObjectID = ref.table.ObjectID
			}
		}
	}
}

// Capabilities implements core.CapabilityReader.
func (s *Static) Capabilities(_ context.Context) (core.Capabilities, error) {
	return s.caps, nil
}

// LookupTable implements core.MetadataProvider.
func (s *Static) LookupTable(_ context.Context, schema, name string) (*core.CatalogTable, error) {
	t := s.find(schema, name)
	if t == nil {
		return nil, fmt.Errorf("%s.%s: %w", schema, name, core.ErrTableNotFound)
	}
	table := t.table
	return &table, nil
}

// Columns implements core.MetadataProvider.
func (s *Static) Columns(_ context.Context, objectID int64) ([]core.CatalogColumn, error) {
	t := s.byID(objectID)
	if t == nil {
		return nil, fmt.Errorf("object %d: %w", objectID, core.ErrTableNotFound)
	}
	return append([]core.CatalogColumn(nil), t.columns...), nil
}

// ForeignKeys implements core.MetadataProvider.
func (s *Static) ForeignKeys(_ context.Context, objectID int64) ([]core.ForeignKey, error) {
	t := s.byID(objectID)
	if t == nil {
		return nil, fmt.Errorf("object %d: %w", objectID, core.ErrTableNotFound)
	}
	return append([]core.ForeignKey(nil), t.fks...), nil
}

// Tables lists the catalog tables in the order they were added.
func (s *Static) Tables() []core.CatalogTable {
	out := make([]core.CatalogTable, len(s.tables))
	for i, t := range s.tables {
		out[i] = t.table
	}
	return out
}

// Names compare case-insensitively, like the default SQL Server collations.
func (s *Static) find(schema, name string) *staticTable {
	for i := range s.tables {
		t := &s.tables[i]
		if strings.EqualFold(t.table.Schema, schema) && strings.EqualFold(t.table.Name, name) {
			return t
		}
	}
	return nil
}

func (s *Static) byID(objectID int64) *staticTable {
	for i := range s.tables {
		if s.tables[i].table.ObjectID == objectID {
			return &s.tables[i]
		}
	}
	return nil
}

var (
	_ core.MetadataProvider = (*Static)(nil)
	_ core.CapabilityReader = (*Static)(nil)
)
