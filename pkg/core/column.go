package core

// TypeFamily groups SQL Server types by how they are rendered and compared.
type TypeFamily int

// Type families.
const (
	FamilyOther TypeFamily = iota
	FamilyNumeric
	FamilyDecimal
	FamilyTemporal
	FamilyCharacter
	FamilyBinary
	FamilyRowVersion
	FamilyLargeObject
	FamilyCLR
)

var familyNames = map[TypeFamily]string{
	FamilyOther:       "other",
	FamilyNumeric:     "numeric",
	FamilyDecimal:     "decimal",
	FamilyTemporal:    "temporal",
	FamilyCharacter:   "character",
	FamilyBinary:      "binary",
	FamilyRowVersion:  "rowversion",
	FamilyLargeObject: "lob",
	FamilyCLR:         "clr",
}

// String returns the family name.
func (f TypeFamily) String() string {
	if s, ok := familyNames[f]; ok {
		return s
	}
	return "other"
}

// Diffable reports whether values of this family can be compared as text.
func (f TypeFamily) Diffable() bool {
	switch f {
	case FamilyBinary, FamilyRowVersion, FamilyLargeObject, FamilyCLR:
		return false
	default:
		return true
	}
}

// ColumnInfo is a classified column of a resolved table.
type ColumnInfo struct {
	TableID  int
	ObjectID int64
	Ordinal  int

	RawName   string
	CleanName string
	Label     string

	Description   string
	TypeName      string
	TypeSignature string
	Family        TypeFamily
	Nullable      bool

	IsPrimaryKey             bool
	IsPeriodStart            bool
	IsPeriodEnd              bool
	IsIdentity               bool
	IsComputed               bool
	IsReferencedByOtherTable bool
	IsIgnored                bool
	IsMasked                 bool
}

// Tracked reports whether the column takes part in change comparison.
func (c ColumnInfo) Tracked() bool {
	return !c.IsPrimaryKey &&
		!c.IsPeriodStart &&
		!c.IsPeriodEnd &&
		!c.IsIgnored &&
		c.Family.Diffable()
}
