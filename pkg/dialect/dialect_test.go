package dialect

import (
	"testing"

	"github.com/leapstack-labs/tdiff/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTSQL_QuoteIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Person", "[Person]"},
		{"First Name", "[First Name]"},
		{"odd]name", "[odd]]name]"},
		{"x]; DROP TABLE y; --", "[x]]; DROP TABLE y; --]"},
		{"", "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, TSQL.QuoteIdentifier(tt.in))
		})
	}
}

func TestTSQL_QuoteString(t *testing.T) {
	assert.Equal(t, "N'Ann'", TSQL.QuoteString("Ann"))
	assert.Equal(t, "N'O''Brien'", TSQL.QuoteString("O'Brien"))
	assert.Equal(t, "N''' OR 1=1 --'", TSQL.QuoteString("' OR 1=1 --"))
	assert.Equal(t, "N''", TSQL.QuoteString(""))
}

func TestTSQL_QualifiedName(t *testing.T) {
	assert.Equal(t, "[dbo].[Person]", TSQL.QualifiedName("dbo", "Person"))
	assert.Equal(t, "[Person]", TSQL.QualifiedName("", "Person"))
}

func TestTSQL_SplitQualifiedName(t *testing.T) {
	tests := []struct {
		in         string
		wantSchema string
		wantName   string
	}{
		{"Person", "dbo", "Person"},
		{"hr.Person", "hr", "Person"},
		{"[hr].[Person]", "hr", "Person"},
		{"[my.schema].[odd]]name]", "my.schema", "odd]name"},
		{`"hr"."Person"`, "hr", "Person"},
		{"db.hr.Person", "hr", "Person"},
		{"  hr.Person  ", "hr", "Person"},
		{"", "dbo", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			schema, name := TSQL.SplitQualifiedName(tt.in)
			assert.Equal(t, tt.wantSchema, schema)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestTSQL_SplitQualifiedNameIn(t *testing.T) {
	schema, name := TSQL.SplitQualifiedNameIn("Person", "hr")
	assert.Equal(t, "hr", schema)
	assert.Equal(t, "Person", name)

	schema, _ = TSQL.SplitQualifiedNameIn("sales.Person", "hr")
	assert.Equal(t, "sales", schema)

	schema, _ = TSQL.SplitQualifiedNameIn("Person", "")
	assert.Equal(t, "dbo", schema)
}

func TestTSQL_Settings(t *testing.T) {
	assert.Equal(t, "tsql", TSQL.Name)
	assert.Equal(t, "dbo", TSQL.DefaultSchema)
	assert.Equal(t, "N", TSQL.StringPrefix)
	assert.Equal(t, core.IdentifierQuoting{Open: "[", Close: "]", EscapedClose: "]]"}, TSQL.Quoting)
}

func TestBuilder(t *testing.T) {
	d := NewDialect("ansi").Build()
	assert.Equal(t, `"a""b"`, d.QuoteIdentifier(`a"b`))
	assert.Equal(t, "'it''s'", d.QuoteString("it's"))

	schema, name := d.SplitQualifiedName("Person")
	assert.Empty(t, schema)
	assert.Equal(t, "Person", name)
}

func TestIdentifierQuoting_MultiByte(t *testing.T) {
	q := core.IdentifierQuoting{Open: "<<", Close: ">>", EscapedClose: ">>>>"}
	assert.Equal(t, "<<a>>>>b>>", q.Quote("a>>b"))
	assert.Equal(t, "<<a>b>>", q.Quote("a>b"))
	assert.Equal(t, "[Prénom]", TSQL.QuoteIdentifier("Prénom"))
}

func TestRegistry(t *testing.T) {
	d, ok := Get("TSQL")
	require.True(t, ok)
	assert.Same(t, TSQL, d)
	assert.Equal(t, []string{"tsql"}, List())

	for _, alias := range []string{"sqlserver", "MSSQL", " mssql "} {
		d, ok = Get(alias)
		require.True(t, ok, alias)
		assert.Same(t, TSQL, d)
	}

	_, ok = Get("nope")
	assert.False(t, ok)
}
