package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/tdiff/pkg/core"
)

// Querier is the subset of *sql.DB used by SysCatalog.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SysCatalog reads metadata from the SQL Server sys.* catalog views.
type SysCatalog struct {
	db     Querier
	logger *slog.Logger
}

// NewSysCatalog creates a SysCatalog. If logger is nil, a discard logger is used.
func NewSysCatalog(db Querier, logger *slog.Logger) *SysCatalog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SysCatalog{db: db, logger: logger}
}

// temporal_type 2 is SYSTEM_VERSIONED_TEMPORAL_TABLE.
const lookupTableSQL = `
SELECT t.object_id,
       s.name,
       t.name,
       CAST(CASE WHEN t.temporal_type = 2 THEN 1 ELSE 0 END AS bit) AS is_temporal
FROM sys.tables AS t
JOIN sys.schemas AS s ON s.schema_id = t.schema_id
WHERE s.name = @p1 AND t.name = @p2`

// generated_always_type 1 is AS ROW START, 2 is AS ROW END.
// Alias types report their base system type.
const columnsSQL = `
SELECT c.column_id,
       c.name,
       COALESCE(bt.name, ty.name) AS type_name,
       CAST(c.max_length AS int) AS max_length,
       CAST(c.precision AS int) AS precision,
       CAST(c.scale AS int) AS scale,
       c.is_nullable,
       c.is_identity,
       c.is_computed,
       CAST(c.generated_always_type AS int) AS generated_always_type,
       CAST(CASE WHEN ic.column_id IS NULL THEN 0 ELSE 1 END AS bit) AS is_primary_key,
       CAST(ep.value AS nvarchar(4000)) AS description
FROM sys.columns AS c
JOIN sys.types AS ty ON ty.user_type_id = c.user_type_id
LEFT JOIN sys.types AS bt
       ON ty.is_user_defined = 1 AND ty.is_assembly_type = 0 AND bt.user_type_id = ty.system_type_id
LEFT JOIN sys.indexes AS i
       ON i.object_id = c.object_id AND i.is_primary_key = 1
LEFT JOIN sys.index_columns AS ic
       ON ic.object_id = i.object_id AND ic.index_id = i.index_id AND ic.column_id = c.column_id
LEFT JOIN sys.extended_properties AS ep
       ON ep.class = 1 AND ep.major_id = c.object_id AND ep.minor_id = c.column_id AND ep.name = N'MS_Description'
WHERE c.object_id = @p1
ORDER BY c.column_id`

const foreignKeysSQL = `
SELECT fk.name,
       pc.name AS parent_column,
       rs.name AS ref_schema,
       rt.name AS ref_table,
       rt.object_id AS ref_object_id,
       rc.name AS ref_column
FROM sys.foreign_keys AS fk
JOIN sys.foreign_key_columns AS fkc ON fkc.constraint_object_id = fk.object_id
JOIN sys.columns AS pc ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
JOIN sys.tables AS rt ON rt.object_id = fkc.referenced_object_id
JOIN sys.schemas AS rs ON rs.schema_id = rt.schema_id
JOIN sys.columns AS rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
WHERE fk.parent_object_id = @p1
ORDER BY fk.object_id, fkc.constraint_column_id`

// LookupTable implements core.MetadataProvider.
func (c *SysCatalog) LookupTable(ctx context.Context, schema, name string) (*core.CatalogTable, error) {
	rows, err := c.db.QueryContext(ctx, lookupTableSQL, schema, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query sys.tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error reading sys.tables: %w", err)
		}
		return nil, fmt.Errorf("%s.%s: %w", schema, name, core.ErrTableNotFound)
	}

	var t core.CatalogTable
	if err := rows.Scan(&t.ObjectID, &t.Schema, &t.Name, &t.Temporal); err != nil {
		return nil, fmt.Errorf("failed to scan sys.tables: %w", err)
	}

	c.logger.Debug("table found",
		slog.String("table", t.QualifiedName()),
		slog.Int64("object_id", t.ObjectID),
		slog.Bool("temporal", t.Temporal))
	return &t, nil
}

// Columns implements core.MetadataProvider.
func (c *SysCatalog) Columns(ctx context.Context, objectID int64) ([]core.CatalogColumn, error) {
	rows, err := c.db.QueryContext(ctx, columnsSQL, objectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.CatalogColumn
	for rows.Next() {
		var (
			col       core.CatalogColumn
			generated int
			desc      sql.NullString
		)
		if err := rows.Scan(
			&col.ColumnID, &col.Name, &col.TypeName,
			&col.MaxLength, &col.Precision, &col.Scale,
			&col.Nullable, &col.Identity, &col.Computed,
			&generated, &col.PrimaryKey, &desc,
		); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		switch generated {
		case 1:
			col.Period = core.PeriodStart
		case 2:
			col.Period = core.PeriodEnd
		}
		col.Description = desc.String
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	c.logger.Debug("columns loaded", slog.Int64("object_id", objectID), slog.Int("count", len(columns)))
	return columns, nil
}

// ForeignKeys implements core.MetadataProvider. Rows of one constraint arrive
// together and become one ForeignKey with all its column pairs.
func (c *SysCatalog) ForeignKeys(ctx context.Context, objectID int64) ([]core.ForeignKey, error) {
	rows, err := c.db.QueryContext(ctx, foreignKeysSQL, objectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var fks []core.ForeignKey
	for rows.Next() {
		var (
			name, parentCol, refSchema, refTable, refCol string
			refID                                        int64
		)
		if err := rows.Scan(&name, &parentCol, &refSchema, &refTable, &refID, &refCol); err != nil {
			return nil, fmt.Errorf("failed to scan foreign keys: %w", err)
		}
		pair := core.ColumnPair{Parent: parentCol, Referenced: refCol}
		if n := len(fks); n > 0 && fks[n-1].Name == name {
			fks[n-1].Columns = append(fks[n-1].Columns, pair)
			continue
		}
		fks = append(fks, core.ForeignKey{
			Name:           name,
			ParentObjectID: objectID,
			RefObjectID:    refID,
			RefSchema:      refSchema,
			RefTable:       refTable,
			Columns:        []core.ColumnPair{pair},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foreign keys: %w", err)
	}
	return fks, nil
}

var _ core.MetadataProvider = (*SysCatalog)(nil)
