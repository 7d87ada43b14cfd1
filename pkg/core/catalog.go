package core

import "context"

// MetadataProvider answers catalog questions about tables, columns and foreign keys.
//
// Implementations must return ErrTableNotFound (possibly wrapped) from
// LookupTable when the table does not exist.
type MetadataProvider interface {
	// LookupTable returns the identity of schema.name.
	LookupTable(ctx context.Context, schema, name string) (*CatalogTable, error)

	// Columns returns the columns of a table in catalog column order.
	Columns(ctx context.Context, objectID int64) ([]CatalogColumn, error)

	// ForeignKeys returns the foreign keys declared on a table.
	ForeignKeys(ctx context.Context, objectID int64) ([]ForeignKey, error)
}

// PeriodKind marks the system-time period role of a column.
type PeriodKind int

// Period kinds.
const (
	PeriodNone PeriodKind = iota
	PeriodStart
	PeriodEnd
)

// String returns the catalog spelling of the period kind.
func (p PeriodKind) String() string {
	switch p {
	case PeriodStart:
		return "start"
	case PeriodEnd:
		return "end"
	default:
		return ""
	}
}

// CatalogTable is a table as reported by the metadata provider.
type CatalogTable struct {
	ObjectID int64
	Schema   string
	Name     string
	// Temporal is true for system-versioned tables.
	Temporal bool
}

// QualifiedName returns schema.name.
func (t CatalogTable) QualifiedName() string {
	return t.Schema + "." + t.Name
}

// CatalogColumn is a column as reported by the metadata provider.
type CatalogColumn struct {
	ColumnID    int
	Name        string
	TypeName    string
	MaxLength   int // bytes, -1 for MAX
	Precision   int
	Scale       int
	Nullable    bool
	Identity    bool
	Computed    bool
	PrimaryKey  bool
	Period      PeriodKind
	Description string
}

// ColumnPair links a referencing column to the column it references.
type ColumnPair struct {
	Parent     string
	Referenced string
}

// ForeignKey is a foreign key constraint declared on a parent table.
type ForeignKey struct {
	Name           string
	ParentObjectID int64
	RefObjectID    int64
	RefSchema      string
	RefTable       string
	Columns        []ColumnPair
}

// IsSingleColumn reports whether the key links exactly one column pair.
func (fk ForeignKey) IsSingleColumn() bool {
	return len(fk.Columns) == 1
}
