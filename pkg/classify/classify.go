// Package classify loads and tags the columns of resolved tables.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/leapstack-labs/tdiff/pkg/core"
	"github.com/leapstack-labs/tdiff/pkg/naming"
	"github.com/leapstack-labs/tdiff/pkg/resolve"
)

// Options control column tagging and labelling.
type Options struct {
	// Ignore and Mask name columns; matching ignores whitespace and case.
	// Names that match no column have no effect.
	Ignore []string
	Mask   []string

	Format naming.Options
	// UseDescriptions labels a column with its stored description when it
	// has one.
	UseDescriptions bool
}

// OptionsFromRequest builds Options from a request.
func OptionsFromRequest(req core.Request) Options {
	return Options{
		Ignore: req.Ignore,
		Mask:   req.Mask,
		Format: naming.Options{
			Enabled:                  req.Format.Enabled,
			PreserveAdjacentCapitals: req.Format.PreserveCapitals,
		},
		UseDescriptions: req.Format.UseDescriptions,
	}
}

// Classifier tags columns using a metadata provider.
type Classifier struct {
	provider core.MetadataProvider
	logger   *slog.Logger
}

// New creates a Classifier. If logger is nil, a discard logger is used.
func New(provider core.MetadataProvider, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Classifier{provider: provider, logger: logger}
}

// Classify loads the columns of every resolved table and tags them.
func (c *Classifier) Classify(ctx context.Context, res *resolve.Result, opts Options) (*Set, error) {
	ignore := nameSet(opts.Ignore)
	mask := nameSet(opts.Mask)
	referenced := referencedColumns(res)

	set := &Set{}
	for _, t := range res.Tables {
		cols, err := c.provider.Columns(ctx, t.ObjectID)
		if err != nil {
			return nil, fmt.Errorf("load columns of %s: %w", t.QualifiedName(), err)
		}
		sort.SliceStable(cols, func(i, j int) bool { return cols[i].ColumnID < cols[j].ColumnID })

		for _, col := range cols {
			info := Column(t, col, opts)
			key := normalize(col.Name)
			info.IsReferencedByOtherTable = referenced[t.ID][key]
			if !info.IsPrimaryKey {
				info.IsIgnored = ignore[key]
				info.IsMasked = mask[key]
			}
			set.Columns = append(set.Columns, info)
		}

		c.logger.Debug("columns classified",
			slog.String("table", t.QualifiedName()),
			slog.String("alias", t.Alias),
			slog.Int("columns", len(cols)))
	}
	return set, nil
}

// Column converts one catalog column into a ColumnInfo without the flags
// that depend on other tables or on the ignore and mask lists.
func Column(t core.TableRef, col core.CatalogColumn, opts Options) core.ColumnInfo {
	label := naming.Format(col.Name, opts.Format)
	if opts.UseDescriptions && strings.TrimSpace(col.Description) != "" {
		label = strings.TrimSpace(col.Description)
	}
	return core.ColumnInfo{
		TableID:       t.ID,
		ObjectID:      t.ObjectID,
		Ordinal:       col.ColumnID,
		RawName:       col.Name,
		CleanName:     naming.RemoveWhitespace(col.Name),
		Label:         label,
		Description:   col.Description,
		TypeName:      CanonicalType(col.TypeName),
		TypeSignature: TypeSignature(col),
		Family:        Family(col.TypeName),
		Nullable:      col.Nullable,
		IsPrimaryKey:  col.PrimaryKey,
		IsPeriodStart: col.Period == core.PeriodStart,
		IsPeriodEnd:   col.Period == core.PeriodEnd,
		IsIdentity:    col.Identity,
		IsComputed:    col.Computed,
	}
}

// referencedColumns returns, per table ID, the normalized names of columns
// that a foreign key of another resolved table points at.
func referencedColumns(res *resolve.Result) map[int]map[string]bool {
	out := make(map[int]map[string]bool, len(res.Tables))
	for _, target := range res.Tables {
		for _, other := range res.Tables {
			if other.ID == target.ID {
				continue
			}
			for _, fk := range res.ForeignKeys[other.ID] {
				if !references(fk, target) {
					continue
				}
				if out[target.ID] == nil {
					out[target.ID] = make(map[string]bool)
				}
				for _, p := range fk.Columns {
					out[target.ID][normalize(p.Referenced)] = true
				}
			}
		}
	}
	return out
}

func references(fk core.ForeignKey, t core.TableRef) bool {
	if fk.RefObjectID != 0 {
		return fk.RefObjectID == t.ObjectID
	}
	return strings.EqualFold(fk.RefSchema, t.Schema) && strings.EqualFold(fk.RefTable, t.Name)
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if k := normalize(n); k != "" {
			set[k] = true
		}
	}
	return set
}
