package synth

import (
	"fmt"

	"github.com/leapstack-labs/tdiff/pkg/classify"
	"github.com/leapstack-labs/tdiff/pkg/core"
	"github.com/leapstack-labs/tdiff/pkg/resolve"
)

// Attribution is the resolved "changed by" lookup of a plan.
type Attribution struct {
	Table core.TableRef
	// Join pairs the foreign key column on the primary table with the
	// referenced column on Table.
	Join  core.ColumnPair
	Value core.ColumnInfo
}

// Plan holds everything the fragments are built from.
type Plan struct {
	Primary     core.TableRef
	Attribution *Attribution

	Keys        []core.ColumnInfo
	PeriodStart core.ColumnInfo
	Tracked     []core.ColumnInfo
	Masked      []core.ColumnInfo

	KeyValue       string
	HasKey         bool
	Labels         core.Labels
	Order          core.Direction
	IncludeInitial bool
}

// NewPlan selects the columns of a change report.
//
// The request must already be validated. Errors are core.ErrNotTemporal
// without a period start column, core.ErrNoPrimaryKey, core.ErrNoTrackedColumns
// and core.ErrCompositeKeyFilter.
func NewPlan(res *resolve.Result, cols *classify.Set, req core.Request) (*Plan, error) {
	primary := res.Primary()

	start, ok := cols.PeriodStart(primary.ID)
	if !ok {
		return nil, fmt.Errorf("%s has no period start column: %w", primary.QualifiedName(), core.ErrNotTemporal)
	}
	keys := cols.PrimaryKey(primary.ID)
	if len(keys) == 0 {
		return nil, fmt.Errorf("%s: %w", primary.QualifiedName(), core.ErrNoPrimaryKey)
	}
	if req.HasKey && len(keys) > 1 {
		return nil, fmt.Errorf("%s has %d key columns: %w", primary.QualifiedName(), len(keys), core.ErrCompositeKeyFilter)
	}
	tracked := cols.Tracked(primary.ID)
	if len(tracked) == 0 {
		return nil, fmt.Errorf("%s: %w", primary.QualifiedName(), core.ErrNoTrackedColumns)
	}

	p := &Plan{
		Primary:        primary,
		Keys:           keys,
		PeriodStart:    start,
		Tracked:        tracked,
		Masked:         cols.Masked(primary.ID),
		KeyValue:       req.KeyValue,
		HasKey:         req.HasKey,
		Labels:         req.Labels.WithDefaults(),
		Order:          req.Order,
		IncludeInitial: req.IncludeInitial,
	}

	if ref, pair, ok := res.Attribution(); ok && req.AttributionValueColumn != "" {
		if value, ok := cols.Find(ref.ID, req.AttributionValueColumn); ok {
			p.Attribution = &Attribution{Table: ref, Join: pair, Value: value}
		}
	}
	return p, nil
}
