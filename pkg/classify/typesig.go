package classify

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/tdiff/pkg/core"
)

// CanonicalType lowercases a type name and maps legacy names to their
// current alias.
func CanonicalType(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "timestamp":
		return "rowversion"
	case "sysname":
		return "nvarchar"
	default:
		return name
	}
}

var families = map[string]core.TypeFamily{
	"bit":              core.FamilyNumeric,
	"tinyint":          core.FamilyNumeric,
	"smallint":         core.FamilyNumeric,
	"int":              core.FamilyNumeric,
	"bigint":           core.FamilyNumeric,
	"float":            core.FamilyNumeric,
	"real":             core.FamilyNumeric,
	"money":            core.FamilyNumeric,
	"smallmoney":       core.FamilyNumeric,
	"decimal":          core.FamilyDecimal,
	"numeric":          core.FamilyDecimal,
	"date":             core.FamilyTemporal,
	"time":             core.FamilyTemporal,
	"datetime":         core.FamilyTemporal,
	"datetime2":        core.FamilyTemporal,
	"smalldatetime":    core.FamilyTemporal,
	"datetimeoffset":   core.FamilyTemporal,
	"char":             core.FamilyCharacter,
	"varchar":          core.FamilyCharacter,
	"nchar":            core.FamilyCharacter,
	"nvarchar":         core.FamilyCharacter,
	"binary":           core.FamilyBinary,
	"varbinary":        core.FamilyBinary,
	"rowversion":       core.FamilyRowVersion,
	"image":            core.FamilyLargeObject,
	"text":             core.FamilyLargeObject,
	"ntext":            core.FamilyLargeObject,
	"geography":        core.FamilyCLR,
	"geometry":         core.FamilyCLR,
	"hierarchyid":      core.FamilyCLR,
	"uniqueidentifier": core.FamilyOther,
	"sql_variant":      core.FamilyOther,
	"xml":              core.FamilyOther,
}

// Family returns the type family of a type name. Unknown types are
// FamilyOther.
func Family(typeName string) core.TypeFamily {
	return families[CanonicalType(typeName)]
}

// TypeSignature renders the declared type of a column, e.g. "decimal(10, 2)",
// "datetime2(7)", "nvarchar(50)" or "varbinary(MAX)".
//
// The catalog reports max_length in bytes, so the length of nchar and
// nvarchar is halved. A max_length of -1 means MAX.
func TypeSignature(col core.CatalogColumn) string {
	name := CanonicalType(col.TypeName)
	switch name {
	case "decimal", "numeric":
		return name + "(" + strconv.Itoa(col.Precision) + ", " + strconv.Itoa(col.Scale) + ")"
	case "time", "datetime2", "datetimeoffset":
		return name + "(" + strconv.Itoa(col.Scale) + ")"
	case "char", "varchar", "binary", "varbinary":
		return name + lengthSuffix(col.MaxLength, 1)
	case "nchar", "nvarchar":
		return name + lengthSuffix(col.MaxLength, 2)
	default:
		return name
	}
}

func lengthSuffix(maxLength, bytesPerChar int) string {
	if maxLength < 0 {
		return "(MAX)"
	}
	return "(" + strconv.Itoa(maxLength/bytesPerChar) + ")"
}
