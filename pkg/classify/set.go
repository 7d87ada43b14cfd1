package classify

import (
	"strings"

	"github.com/leapstack-labs/tdiff/pkg/core"
	"github.com/leapstack-labs/tdiff/pkg/naming"
)

// Set is the ordered column list of one run: by table resolution order, then
// catalog column order.
type Set struct {
	Columns []core.ColumnInfo
}

// Table returns the columns of one table.
func (s *Set) Table(tableID int) []core.ColumnInfo {
	var out []core.ColumnInfo
	for _, c := range s.Columns {
		if c.TableID == tableID {
			out = append(out, c)
		}
	}
	return out
}

// Find looks a column up by name, ignoring whitespace and case.
func (s *Set) Find(tableID int, name string) (core.ColumnInfo, bool) {
	want := normalize(name)
	for _, c := range s.Columns {
		if c.TableID == tableID && normalize(c.RawName) == want {
			return c, true
		}
	}
	return core.ColumnInfo{}, false
}

// PrimaryKey returns the key columns of a table in catalog order.
func (s *Set) PrimaryKey(tableID int) []core.ColumnInfo {
	return s.filter(tableID, func(c core.ColumnInfo) bool { return c.IsPrimaryKey })
}

// PeriodStart returns the period start column of a table.
func (s *Set) PeriodStart(tableID int) (core.ColumnInfo, bool) {
	cols := s.filter(tableID, func(c core.ColumnInfo) bool { return c.IsPeriodStart })
	if len(cols) == 0 {
		return core.ColumnInfo{}, false
	}
	return cols[0], true
}

// Tracked returns the columns of a table that take part in comparison.
func (s *Set) Tracked(tableID int) []core.ColumnInfo {
	return s.filter(tableID, core.ColumnInfo.Tracked)
}

// Masked returns the tracked, masked columns of a table.
func (s *Set) Masked(tableID int) []core.ColumnInfo {
	return s.filter(tableID, func(c core.ColumnInfo) bool { return c.Tracked() && c.IsMasked })
}

func (s *Set) filter(tableID int, keep func(core.ColumnInfo) bool) []core.ColumnInfo {
	var out []core.ColumnInfo
	for _, c := range s.Columns {
		if c.TableID == tableID && keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func normalize(name string) string {
	return strings.ToLower(naming.RemoveWhitespace(name))
}
