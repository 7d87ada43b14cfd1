package dialect

// TSQL is the Microsoft SQL Server dialect: bracket identifiers and Unicode
// string literals.
var TSQL = NewDialect("tsql").
	Delimiters("[", "]").
	DefaultSchema("dbo").
	StringPrefix("N").
	Build()

func init() {
	Register(TSQL, "sqlserver", "mssql")
}
