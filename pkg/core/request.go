package core

import (
	"fmt"
	"strings"
)

// Direction is the ordering of the change report by period start.
type Direction string

// Valid directions.
const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)

// ParseDirection accepts "asc"/"desc" in any case.
// Anything else is an ErrInvalidDirection.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ASC", "ASCENDING":
		return Ascending, nil
	case "DESC", "DESCENDING":
		return Descending, nil
	default:
		return "", fmt.Errorf("%w: %q (expected ASC or DESC)", ErrInvalidDirection, s)
	}
}

// Labels are the header names of the report columns.
type Labels struct {
	Key       string `koanf:"key"`
	Column    string `koanf:"column"`
	OldValue  string `koanf:"old_value"`
	NewValue  string `koanf:"new_value"`
	ChangedBy string `koanf:"changed_by"`
	ChangedAt string `koanf:"changed_at"`
}

// Default report header names.
const (
	DefaultKeyLabel       = "Key"
	DefaultColumnLabel    = "Column"
	DefaultOldValueLabel  = "Old Value"
	DefaultNewValueLabel  = "New Value"
	DefaultChangedByLabel = "Changed By"
	DefaultChangedAtLabel = "Changed At"
)

// DefaultLabels returns the default header names.
func DefaultLabels() Labels {
	return Labels{
		Key:       DefaultKeyLabel,
		Column:    DefaultColumnLabel,
		OldValue:  DefaultOldValueLabel,
		NewValue:  DefaultNewValueLabel,
		ChangedBy: DefaultChangedByLabel,
		ChangedAt: DefaultChangedAtLabel,
	}
}

// WithDefaults fills empty labels with their defaults.
func (l Labels) WithDefaults() Labels {
	d := DefaultLabels()
	if l.Key == "" {
		l.Key = d.Key
	}
	if l.Column == "" {
		l.Column = d.Column
	}
	if l.OldValue == "" {
		l.OldValue = d.OldValue
	}
	if l.NewValue == "" {
		l.NewValue = d.NewValue
	}
	if l.ChangedBy == "" {
		l.ChangedBy = d.ChangedBy
	}
	if l.ChangedAt == "" {
		l.ChangedAt = d.ChangedAt
	}
	return l
}

// FormatOptions control how column labels are produced.
type FormatOptions struct {
	// Enabled turns identifiers like FirstName into "First Name".
	Enabled bool `koanf:"enabled"`
	// PreserveCapitals keeps runs of capitals such as "TPS" together.
	PreserveCapitals bool `koanf:"preserve_capitals"`
	// UseDescriptions prefers a stored column description over the formatted name.
	UseDescriptions bool `koanf:"use_descriptions"`
}

// Request is everything a caller supplies for one change report.
type Request struct {
	// Table is schema.table; the schema defaults to the target schema.
	Table string

	// KeyValue restricts the report to one record when HasKey is set.
	KeyValue string
	HasKey   bool

	// AttributionColumn is a foreign key column on Table naming who made a change.
	AttributionColumn string
	// AttributionValueColumn is the column on the referenced table to display.
	AttributionValueColumn string

	Ignore []string
	Mask   []string

	Format FormatOptions
	Labels Labels
	Order  Direction

	// IncludeInitial also reports the first recorded version of each row.
	IncludeInitial bool

	// Debug returns the generated query instead of executing it.
	Debug bool
}

// Validate checks the fields that must be correct before any metadata is read.
// An empty Order becomes Ascending.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Table) == "" {
		return ErrEmptyTable
	}
	if r.Order == "" {
		r.Order = Ascending
	}
	dir, err := ParseDirection(string(r.Order))
	if err != nil {
		return err
	}
	r.Order = dir
	r.Labels = r.Labels.WithDefaults()
	return nil
}
