// Package dialect provides the identifier and literal quoting rules for
// generated SQL.
//
// Every piece of caller-controlled text that ends up in generated SQL goes
// through QuoteIdentifier or QuoteString. Concrete dialects are registered
// from this package's init functions (see tsql.go).
package dialect

import (
	"strings"

	"github.com/leapstack-labs/tdiff/pkg/core"
)

// Dialect holds the quoting rules used when rendering generated SQL.
type Dialect struct {
	Name          string
	Quoting       core.IdentifierQuoting
	DefaultSchema string // used when a table name has no schema part
	StringPrefix  string // written before string literals ("N" in T-SQL)
}

// QuoteIdentifier delimits name so that it is always read as an identifier.
func (d *Dialect) QuoteIdentifier(name string) string {
	return d.Quoting.Quote(name)
}

// QualifiedName quotes and joins the non-empty parts with dots.
func (d *Dialect) QualifiedName(parts ...string) string {
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		quoted = append(quoted, d.QuoteIdentifier(p))
	}
	return strings.Join(quoted, ".")
}

// QuoteString renders s as a string literal, doubling embedded single quotes.
func (d *Dialect) QuoteString(s string) string {
	return d.StringPrefix + "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// SplitQualifiedName splits schema.name, using the dialect's default schema
// when none is given. Bracket or double-quote delimited parts are unquoted.
func (d *Dialect) SplitQualifiedName(qualified string) (schema, name string) {
	return d.SplitQualifiedNameIn(qualified, d.DefaultSchema)
}

// SplitQualifiedNameIn is SplitQualifiedName with an explicit fallback schema.
func (d *Dialect) SplitQualifiedNameIn(qualified, fallback string) (schema, name string) {
	if fallback == "" {
		fallback = d.DefaultSchema
	}
	parts := splitParts(strings.TrimSpace(qualified))
	switch len(parts) {
	case 0:
		return fallback, ""
	case 1:
		return fallback, parts[0]
	default:
		// database.schema.table keeps the last two parts
		return parts[len(parts)-2], parts[len(parts)-1]
	}
}

// splitParts splits on dots outside [..] and ".." delimiters and strips the delimiters.
func splitParts(s string) []string {
	if s == "" {
		return nil
	}
	var (
		parts   []string
		cur     strings.Builder
		closing rune
	)
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case closing != 0:
			if r == closing {
				// doubled closing delimiter is an escaped literal
				if i+1 < len(runes) && runes[i+1] == closing {
					cur.WriteRune(r)
					i++
					continue
				}
				closing = 0
				continue
			}
			cur.WriteRune(r)
		case r == '[':
			closing = ']'
		case r == '"':
			closing = '"'
		case r == '.':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(parts, cur.String())
}

// ---------- Builder ----------

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
}

// NewDialect starts a dialect with ANSI double-quote identifiers.
func NewDialect(name string) *Builder {
	b := &Builder{dialect: &Dialect{Name: name}}
	return b.Delimiters(`"`, `"`)
}

// Delimiters sets the identifier delimiters. A closing delimiter inside a
// name is escaped by doubling it.
func (b *Builder) Delimiters(open, close string) *Builder {
	b.dialect.Quoting = core.IdentifierQuoting{Open: open, Close: close, EscapedClose: close + close}
	return b
}

// DefaultSchema sets the default schema name.
func (b *Builder) DefaultSchema(schema string) *Builder {
	b.dialect.DefaultSchema = schema
	return b
}

// StringPrefix sets the prefix written before string literals.
func (b *Builder) StringPrefix(prefix string) *Builder {
	b.dialect.StringPrefix = prefix
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	return b.dialect
}
