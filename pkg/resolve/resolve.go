// Package resolve finds the tables a change report reads from.
//
// The target table is the root of a small tree. An attribution lookup table,
// reached through one foreign key, is its only child. The tree carries depth
// so longer chains fit the same shape, but only one hop is ever resolved.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/tdiff/pkg/core"
	"github.com/leapstack-labs/tdiff/pkg/naming"
)

// TableNode is one resolved table and the foreign key that reached it.
type TableNode struct {
	Table    core.TableRef
	Depth    int
	Via      *core.ForeignKey // nil for the root
	Children []*TableNode
}

// Walk visits the node and its descendants depth-first, in resolution order.
// Returning false from fn stops the walk.
func (n *TableNode) Walk(fn func(*TableNode) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Result is the outcome of resolving one request.
type Result struct {
	Root *TableNode

	// Tables lists every resolved table in resolution order, aliases assigned.
	Tables []core.TableRef

	// ForeignKeys holds the foreign keys declared on each table, by TableRef.ID.
	ForeignKeys map[int][]core.ForeignKey
}

// Primary returns the target table.
func (r *Result) Primary() core.TableRef {
	return r.Root.Table
}

// Attribution returns the lookup table and the column pair joining it to the
// target, or false when attribution was not requested or did not resolve.
func (r *Result) Attribution() (core.TableRef, core.ColumnPair, bool) {
	for _, c := range r.Root.Children {
		if c.Table.Role == core.RoleAttribution && c.Via != nil && c.Via.IsSingleColumn() {
			return c.Table, c.Via.Columns[0], true
		}
	}
	return core.TableRef{}, core.ColumnPair{}, false
}

// Resolver looks tables up through a metadata provider.
type Resolver struct {
	provider core.MetadataProvider
	logger   *slog.Logger
}

// New creates a Resolver. If logger is nil, a discard logger is used.
func New(provider core.MetadataProvider, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{provider: provider, logger: logger}
}

// Resolve looks up schema.name and, when attributionColumn is set, the table
// referenced by the single-column foreign key on that column.
//
// A missing target table is an error wrapping core.ErrTableNotFound. A missing
// or unusable attribution key is not: the result simply has no attribution.
func (r *Resolver) Resolve(ctx context.Context, schema, name, attributionColumn string) (*Result, error) {
	target, err := r.provider.LookupTable(ctx, schema, name)
	if err != nil {
		return nil, fmt.Errorf("resolve %s.%s: %w", schema, name, err)
	}
	if !target.Temporal {
		return nil, fmt.Errorf("resolve %s: %w", target.QualifiedName(), core.ErrNotTemporal)
	}

	res := &Result{ForeignKeys: make(map[int][]core.ForeignKey)}
	res.Root = &TableNode{Table: r.tableRef(res, *target, core.RolePrimary)}

	fks, err := r.provider.ForeignKeys(ctx, target.ObjectID)
	if err != nil {
		return nil, fmt.Errorf("load foreign keys of %s: %w", target.QualifiedName(), err)
	}
	res.ForeignKeys[res.Root.Table.ID] = fks

	if col := naming.RemoveWhitespace(attributionColumn); col != "" {
		if err := r.attach(ctx, res, fks, col); err != nil {
			return nil, err
		}
	}

	AllocateAliases(res.Tables)
	// Nodes hold copies; push the aliases back into the tree.
	res.Root.Walk(func(n *TableNode) bool {
		n.Table = res.Tables[n.Table.ID-1]
		return true
	})

	return res, nil
}

// attach adds the attribution child for the foreign key on column col.
func (r *Resolver) attach(ctx context.Context, res *Result, fks []core.ForeignKey, col string) error {
	fk, ok := findForeignKey(fks, col)
	if !ok {
		r.logger.Debug("no single-column foreign key for attribution column; attribution skipped",
			slog.String("column", col))
		return nil
	}

	ref, err := r.provider.LookupTable(ctx, fk.RefSchema, fk.RefTable)
	if errors.Is(err, core.ErrTableNotFound) {
		r.logger.Debug("attribution table not found; attribution skipped",
			slog.String("table", fk.RefSchema+"."+fk.RefTable))
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve attribution table %s.%s: %w", fk.RefSchema, fk.RefTable, err)
	}

	node := &TableNode{
		Table: r.tableRef(res, *ref, core.RoleAttribution),
		Depth: res.Root.Depth + 1,
		Via:   &fk,
	}
	res.Root.Children = append(res.Root.Children, node)

	refFKs, err := r.provider.ForeignKeys(ctx, ref.ObjectID)
	if err != nil {
		return fmt.Errorf("load foreign keys of %s: %w", ref.QualifiedName(), err)
	}
	res.ForeignKeys[node.Table.ID] = refFKs

	r.logger.Debug("attribution resolved",
		slog.String("foreign_key", fk.Name),
		slog.String("table", ref.QualifiedName()))
	return nil
}

// tableRef appends a new TableRef to the result and returns it.
func (r *Resolver) tableRef(res *Result, t core.CatalogTable, role core.Role) core.TableRef {
	ref := core.TableRef{
		ID:       len(res.Tables) + 1,
		ObjectID: t.ObjectID,
		Schema:   t.Schema,
		Name:     t.Name,
		Role:     role,
	}
	res.Tables = append(res.Tables, ref)
	return ref
}

func findForeignKey(fks []core.ForeignKey, column string) (core.ForeignKey, bool) {
	for _, fk := range fks {
		if fk.IsSingleColumn() && strings.EqualFold(naming.RemoveWhitespace(fk.Columns[0].Parent), column) {
			return fk, true
		}
	}
	return core.ForeignKey{}, false
}
