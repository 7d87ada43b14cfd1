// Package synth assembles the T-SQL change report query.
//
// The query reads every version of the primary table, pairs each tracked
// column with its value in the preceding version of the same row using LAG,
// unpivots the pairs into one row per column and keeps only the pairs whose
// values differ. Each step is a Fragment built from a Plan; Synthesize joins
// them into the final text.
package synth

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/tdiff/pkg/classify"
	"github.com/leapstack-labs/tdiff/pkg/core"
	"github.com/leapstack-labs/tdiff/pkg/dialect"
	"github.com/leapstack-labs/tdiff/pkg/resolve"
)

// Display markers.
const (
	RedactionMarker = "*****"
	UnknownMarker   = "Unknown"
)

// Names used inside the generated query. None of them come from user input.
const (
	versionsName = "versions"
	rowAlias     = "v"
	pairAlias    = "c"

	rowKeyName     = "row_key"
	changedAtName  = "changed_at"
	previousAtName = "previous_at"
	changedByName  = "changed_by"

	ordinalName = "ordinal"
	labelName   = "column_label"
	oldName     = "old_value"
	newName     = "new_value"
)

// Query is a synthesized change report.
type Query struct {
	Text      string
	Fragments []Fragment
	// Columns are the result headers in output order.
	Columns []string
	Plan    *Plan
}

// Fragment returns the fragment of the given kind.
func (q *Query) Fragment(kind Kind) (Fragment, bool) {
	for _, f := range q.Fragments {
		if f.Kind == kind {
			return f, true
		}
	}
	return Fragment{}, false
}

// Synthesizer renders plans as query text.
type Synthesizer struct {
	d *dialect.Dialect
}

// New creates a Synthesizer. If d is nil, dialect.TSQL is used.
func New(d *dialect.Dialect) *Synthesizer {
	if d == nil {
		d = dialect.TSQL
	}
	return &Synthesizer{d: d}
}

// Generate builds a plan and synthesizes it.
func (s *Synthesizer) Generate(res *resolve.Result, cols *classify.Set, req core.Request) (*Query, error) {
	plan, err := NewPlan(res, cols, req)
	if err != nil {
		return nil, err
	}
	return s.Synthesize(plan), nil
}

// Synthesize assembles all fragments of a plan into one query.
func (s *Synthesizer) Synthesize(p *Plan) *Query {
	frags := []Fragment{
		s.Pairing(p),
		s.Source(p),
		s.Projection(p),
		s.Unpivot(p),
		s.Filter(p),
		s.Ordering(p),
	}

	var b strings.Builder
	b.WriteString("WITH " + s.d.QuoteIdentifier(versionsName) + " AS (\n")
	b.WriteString(indent(frags[0].Text) + "\n")
	b.WriteString(indent(frags[1].Text) + "\n")
	b.WriteString(")\n")
	b.WriteString(frags[2].Text + "\n")
	b.WriteString("FROM " + s.d.QuoteIdentifier(versionsName) + " AS " + s.d.QuoteIdentifier(rowAlias) + "\n")
	b.WriteString(frags[3].Text + "\n")
	b.WriteString(frags[4].Text + "\n")
	b.WriteString(frags[5].Text + ";\n")

	return &Query{
		Text:      b.String(),
		Fragments: frags,
		Columns:   headers(p),
		Plan:      p,
	}
}

// Source reads every version of the primary table, joins the attribution
// table and applies the key filter before any window is computed.
func (s *Synthesizer) Source(p *Plan) Fragment {
	var b strings.Builder
	b.WriteString("FROM " + s.d.QualifiedName(p.Primary.Schema, p.Primary.Name) +
		" FOR SYSTEM_TIME ALL AS " + s.alias(p.Primary))

	if a := p.Attribution; a != nil {
		b.WriteString("\nLEFT JOIN " + s.d.QualifiedName(a.Table.Schema, a.Table.Name) +
			" AS " + s.alias(a.Table) +
			" ON " + s.column(a.Table, a.Join.Referenced) +
			" = " + s.column(p.Primary, a.Join.Parent))
	}
	if p.HasKey {
		b.WriteString("\nWHERE " + s.column(p.Primary, p.Keys[0].RawName) + " = " + s.d.QuoteString(p.KeyValue))
	}
	return Fragment{Kind: KindSource, Text: b.String()}
}

// Pairing selects, per version, the key, the period start, the attribution
// value and for every tracked column its current value and the value of the
// preceding version of the same row.
func (s *Synthesizer) Pairing(p *Plan) Fragment {
	start := s.column(p.Primary, p.PeriodStart.RawName)

	keyCols := make([]string, len(p.Keys))
	for i, k := range p.Keys {
		keyCols[i] = s.column(p.Primary, k.RawName)
	}
	window := "OVER (PARTITION BY " + strings.Join(keyCols, ", ") + " ORDER BY " + start + " ASC)"

	items := []string{s.keyDisplay(p) + " AS " + s.d.QuoteIdentifier(rowKeyName)}
	for i, k := range keyCols {
		items = append(items, k+" AS "+s.d.QuoteIdentifier(keyName(i)))
	}
	items = append(items,
		start+" AS "+s.d.QuoteIdentifier(changedAtName),
		"LAG("+start+") "+window+" AS "+s.d.QuoteIdentifier(previousAtName),
	)
	if a := p.Attribution; a != nil {
		items = append(items, "ISNULL("+convert(a.Value, s.column(a.Table, a.Value.RawName))+", "+
			s.d.QuoteString(UnknownMarker)+") AS "+s.d.QuoteIdentifier(changedByName))
	}
	for i, c := range p.Tracked {
		value := convert(c, s.column(p.Primary, c.RawName))
		items = append(items,
			value+" AS "+s.d.QuoteIdentifier(newValueName(i)),
			"LAG("+value+") "+window+" AS "+s.d.QuoteIdentifier(oldValueName(i)),
		)
	}
	return Fragment{Kind: KindPairing, Text: "SELECT\n" + indent(strings.Join(items, ",\n"))}
}

// Projection selects the report columns under the caller's labels and
// applies masking.
func (s *Synthesizer) Projection(p *Plan) Fragment {
	items := []string{
		s.ref(rowAlias, rowKeyName) + " AS " + s.d.QuoteIdentifier(p.Labels.Key),
		s.ref(pairAlias, labelName) + " AS " + s.d.QuoteIdentifier(p.Labels.Column),
		s.display(p, oldName) + " AS " + s.d.QuoteIdentifier(p.Labels.OldValue),
		s.display(p, newName) + " AS " + s.d.QuoteIdentifier(p.Labels.NewValue),
	}
	if p.Attribution != nil {
		items = append(items, s.ref(rowAlias, changedByName)+" AS "+s.d.QuoteIdentifier(p.Labels.ChangedBy))
	}
	items = append(items, s.ref(rowAlias, changedAtName)+" AS "+s.d.QuoteIdentifier(p.Labels.ChangedAt))
	return Fragment{Kind: KindProjection, Text: "SELECT\n" + indent(strings.Join(items, ",\n"))}
}

// Unpivot turns the old and new value pairs of a version into one row per
// tracked column.
func (s *Synthesizer) Unpivot(p *Plan) Fragment {
	rows := make([]string, len(p.Tracked))
	for i, c := range p.Tracked {
		rows[i] = "(" + strconv.Itoa(i+1) + ", " + s.d.QuoteString(c.Label) + ", " +
			s.ref(rowAlias, oldValueName(i)) + ", " + s.ref(rowAlias, newValueName(i)) + ")"
	}
	cols := []string{
		s.d.QuoteIdentifier(ordinalName),
		s.d.QuoteIdentifier(labelName),
		s.d.QuoteIdentifier(oldName),
		s.d.QuoteIdentifier(newName),
	}
	text := "CROSS APPLY (VALUES\n" + indent(strings.Join(rows, ",\n")) + "\n) AS " +
		s.d.QuoteIdentifier(pairAlias) + " (" + strings.Join(cols, ", ") + ")"
	return Fragment{Kind: KindUnpivot, Text: text}
}

// Filter keeps pairs whose values differ. EXCEPT compares NULLs as equal, so
// NULL against NULL is unchanged and NULL against a value is a change.
// Without IncludeInitial the first version of each row is dropped.
func (s *Synthesizer) Filter(p *Plan) Fragment {
	diff := "EXISTS (SELECT " + s.ref(pairAlias, oldName) + " EXCEPT SELECT " + s.ref(pairAlias, newName) + ")"
	if p.IncludeInitial {
		return Fragment{Kind: KindFilter, Text: "WHERE " + diff}
	}
	return Fragment{
		Kind: KindFilter,
		Text: "WHERE " + s.ref(rowAlias, previousAtName) + " IS NOT NULL\n  AND " + diff,
	}
}

// Ordering sorts by period start in the requested direction, then by key and
// column position.
func (s *Synthesizer) Ordering(p *Plan) Fragment {
	items := []string{s.ref(rowAlias, changedAtName) + " " + string(p.Order)}
	for i := range p.Keys {
		items = append(items, s.ref(rowAlias, keyName(i))+" ASC")
	}
	items = append(items, s.ref(pairAlias, ordinalName)+" ASC")
	return Fragment{Kind: KindOrdering, Text: "ORDER BY " + strings.Join(items, ", ")}
}

// keyDisplay renders the key as text. Composite keys are joined with ", ".
func (s *Synthesizer) keyDisplay(p *Plan) string {
	if len(p.Keys) == 1 {
		return convert(p.Keys[0], s.column(p.Primary, p.Keys[0].RawName))
	}
	parts := make([]string, len(p.Keys))
	for i, k := range p.Keys {
		parts[i] = convert(k, s.column(p.Primary, k.RawName))
	}
	return "CONCAT(" + strings.Join(parts, ", "+s.d.QuoteString(", ")+", ") + ")"
}

// display renders an old or new value with masking applied. With no masked
// column, NULL is shown as empty text.
func (s *Synthesizer) display(p *Plan, valueName string) string {
	value := s.ref(pairAlias, valueName)
	if len(p.Masked) == 0 {
		return "ISNULL(" + value + ", " + s.d.QuoteString("") + ")"
	}
	seen := make(map[string]bool, len(p.Masked))
	var labels []string
	for _, c := range p.Masked {
		if !seen[c.Label] {
			seen[c.Label] = true
			labels = append(labels, s.d.QuoteString(c.Label))
		}
	}
	return "CASE WHEN " + s.ref(pairAlias, labelName) + " IN (" + strings.Join(labels, ", ") +
		") THEN " + s.d.QuoteString(RedactionMarker) + " ELSE " + value + " END"
}

func (s *Synthesizer) alias(t core.TableRef) string {
	return s.d.QuoteIdentifier(t.Alias)
}

func (s *Synthesizer) column(t core.TableRef, name string) string {
	return s.alias(t) + "." + s.d.QuoteIdentifier(name)
}

func (s *Synthesizer) ref(alias, name string) string {
	return s.d.QuoteIdentifier(alias) + "." + s.d.QuoteIdentifier(name)
}

// convert casts a column to nvarchar(max). Date and time values use ISO 8601,
// float keeps full precision and money keeps four decimals.
func convert(c core.ColumnInfo, expr string) string {
	style := ""
	switch {
	case c.Family == core.FamilyTemporal:
		style = ", 126"
	case c.TypeName == "float" || c.TypeName == "real":
		style = ", 3"
	case c.TypeName == "money" || c.TypeName == "smallmoney":
		style = ", 2"
	}
	return "CONVERT(nvarchar(max), " + expr + style + ")"
}

func headers(p *Plan) []string {
	h := []string{p.Labels.Key, p.Labels.Column, p.Labels.OldValue, p.Labels.NewValue}
	if p.Attribution != nil {
		h = append(h, p.Labels.ChangedBy)
	}
	return append(h, p.Labels.ChangedAt)
}

func keyName(i int) string      { return fmt.Sprintf("k%d", i+1) }
func newValueName(i int) string { return fmt.Sprintf("n%d", i+1) }
func oldValueName(i int) string { return fmt.Sprintf("o%d", i+1) }

func indent(s string) string {
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}
