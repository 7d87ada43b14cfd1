package catalog

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/tdiff/pkg/core"
	"gopkg.in/yaml.v3"
)

// Document is the YAML shape of an offline catalog file.
type Document struct {
	Engine EngineDoc  `yaml:"engine"`
	Tables []TableDoc `yaml:"tables"`
}

// EngineDoc declares the capabilities of the engine the catalog came from.
type EngineDoc struct {
	ProductVersion     string `yaml:"product_version"`
	MajorVersion       int    `yaml:"major_version"`
	CompatibilityLevel int    `yaml:"compatibility_level"`
}

// TableDoc describes one table.
type TableDoc struct {
	Schema      string          `yaml:"schema"`
	Name        string          `yaml:"name"`
	ObjectID    int64           `yaml:"object_id"`
	Temporal    *bool           `yaml:"temporal"` // default: true when a period start column exists
	Columns     []ColumnDoc     `yaml:"columns"`
	ForeignKeys []ForeignKeyDoc `yaml:"foreign_keys"`
}

// ColumnDoc describes one column.
type ColumnDoc struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	MaxLength   int    `yaml:"max_length"`
	Precision   int    `yaml:"precision"`
	Scale       int    `yaml:"scale"`
	Nullable    bool   `yaml:"nullable"`
	Identity    bool   `yaml:"identity"`
	Computed    bool   `yaml:"computed"`
	PrimaryKey  bool   `yaml:"primary_key"`
	Period      string `yaml:"period"` // start, end or empty
	Description string `yaml:"description"`
}

// ForeignKeyDoc describes a foreign key. Single-column keys use Column and
// RefColumn; composite keys list their pairs in Columns.
type ForeignKeyDoc struct {
	Name      string          `yaml:"name"`
	Column    string          `yaml:"column"`
	RefSchema string          `yaml:"ref_schema"`
	RefTable  string          `yaml:"ref_table"`
	RefColumn string          `yaml:"ref_column"`
	Columns   []ColumnPairDoc `yaml:"columns"`
}

// ColumnPairDoc is one column pair of a composite foreign key.
type ColumnPairDoc struct {
	Column    string `yaml:"column"`
	RefColumn string `yaml:"ref_column"`
}

// LoadFile reads a YAML catalog file.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is the user's catalog file
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return s, nil
}

// Parse builds a Static catalog from YAML.
func Parse(data []byte) (*Static, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid catalog yaml: %w", err)
	}
	return FromDocument(doc)
}

// FromDocument builds a Static catalog from a decoded document.
func FromDocument(doc Document) (*Static, error) {
	caps := DefaultCapabilities
	if doc.Engine.MajorVersion != 0 {
		caps = core.Capabilities{
			ProductVersion:     doc.Engine.ProductVersion,
			MajorVersion:       doc.Engine.MajorVersion,
			CompatibilityLevel: doc.Engine.CompatibilityLevel,
		}
		if caps.CompatibilityLevel == 0 {
			caps.CompatibilityLevel = caps.MajorVersion * 10
		}
	}

	s := NewStatic(caps)
	for i, td := range doc.Tables {
		if td.Name == "" {
			return nil, fmt.Errorf("table #%d has no name", i+1)
		}
		schema := td.Schema
		if schema == "" {
			schema = "dbo"
		}

		columns := make([]core.CatalogColumn, 0, len(td.Columns))
		hasStart := false
		for _, cd := range td.Columns {
			col, err := cd.column()
			if err != nil {
				return nil, fmt.Errorf("table %s.%s: %w", schema, td.Name, err)
			}
			hasStart = hasStart || col.Period == core.PeriodStart
			columns = append(columns, col)
		}

		temporal := hasStart
		if td.Temporal != nil {
			temporal = *td.Temporal
		}

		fks := make([]core.ForeignKey, 0, len(td.ForeignKeys))
		for _, fd := range td.ForeignKeys {
			fks = append(fks, fd.foreignKey(schema))
		}

		s.AddTable(core.CatalogTable{
			ObjectID: td.ObjectID,
			Schema:   schema,
			Name:     td.Name,
			Temporal: temporal,
		}, columns, fks)
	}
	s.ResolveReferences()
	return s, nil
}

func (cd ColumnDoc) column() (core.CatalogColumn, error) {
	if cd.Name == "" || cd.Type == "" {
		return core.CatalogColumn{}, fmt.Errorf("column %q needs a name and a type", cd.Name)
	}
	var period core.PeriodKind
	switch strings.ToLower(cd.Period) {
	case "":
	case "start":
		period = core.PeriodStart
	case "end":
		period = core.PeriodEnd
	default:
		return core.CatalogColumn{}, fmt.Errorf("column %s: period must be start or end, got %q", cd.Name, cd.Period)
	}
	return core.CatalogColumn{
		Name:        cd.Name,
		TypeName:    strings.ToLower(cd.Type),
		MaxLength:   cd.MaxLength,
		Precision:   cd.Precision,
		Scale:       cd.Scale,
		Nullable:    cd.Nullable,
		Identity:    cd.Identity,
		Computed:    cd.Computed,
		PrimaryKey:  cd.PrimaryKey,
		Period:      period,
		Description: cd.Description,
	}, nil
}

func (fd ForeignKeyDoc) foreignKey(defaultSchema string) core.ForeignKey {
	fk := core.ForeignKey{
		Name:      fd.Name,
		RefSchema: fd.RefSchema,
		RefTable:  fd.RefTable,
	}
	if fk.RefSchema == "" {
		fk.RefSchema = defaultSchema
	}
	if fd.Column != "" {
		fk.Columns = append(fk.Columns, core.ColumnPair{Parent: fd.Column, Referenced: fd.RefColumn})
	}
	for _, p := range fd.Columns {
		fk.Columns = append(fk.Columns, core.ColumnPair{Parent: p.Column, Referenced: p.RefColumn})
	}
	return fk
}
