package classify

import (
	"testing"

	"github.com/leapstack-labs/tdiff/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestTypeSignature(t *testing.T) {
	tests := []struct {
		name string
		col  core.CatalogColumn
		want string
	}{
		{"int", core.CatalogColumn{TypeName: "int", MaxLength: 4}, "int"},
		{"decimal", core.CatalogColumn{TypeName: "decimal", Precision: 10, Scale: 2}, "decimal(10, 2)"},
		{"numeric", core.CatalogColumn{TypeName: "NUMERIC", Precision: 18, Scale: 0}, "numeric(18, 0)"},
		{"datetime2", core.CatalogColumn{TypeName: "datetime2", Scale: 7}, "datetime2(7)"},
		{"time", core.CatalogColumn{TypeName: "time", Scale: 3}, "time(3)"},
		{"datetimeoffset", core.CatalogColumn{TypeName: "datetimeoffset", Scale: 0}, "datetimeoffset(0)"},
		{"datetime has no suffix", core.CatalogColumn{TypeName: "datetime", Scale: 3}, "datetime"},
		{"varchar", core.CatalogColumn{TypeName: "varchar", MaxLength: 50}, "varchar(50)"},
		{"varchar max", core.CatalogColumn{TypeName: "varchar", MaxLength: -1}, "varchar(MAX)"},
		{"nvarchar halves bytes", core.CatalogColumn{TypeName: "nvarchar", MaxLength: 200}, "nvarchar(100)"},
		{"nchar", core.CatalogColumn{TypeName: "nchar", MaxLength: 20}, "nchar(10)"},
		{"nvarchar max", core.CatalogColumn{TypeName: "nvarchar", MaxLength: -1}, "nvarchar(MAX)"},
		{"binary", core.CatalogColumn{TypeName: "binary", MaxLength: 16}, "binary(16)"},
		{"varbinary max", core.CatalogColumn{TypeName: "varbinary", MaxLength: -1}, "varbinary(MAX)"},
		{"legacy timestamp", core.CatalogColumn{TypeName: "timestamp", MaxLength: 8}, "rowversion"},
		{"sysname", core.CatalogColumn{TypeName: "sysname", MaxLength: 256}, "nvarchar(128)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeSignature(tt.col))
		})
	}
}

func TestFamily(t *testing.T) {
	tests := []struct {
		typeName string
		want     core.TypeFamily
		diffable bool
	}{
		{"int", core.FamilyNumeric, true},
		{"decimal", core.FamilyDecimal, true},
		{"datetime2", core.FamilyTemporal, true},
		{"NVARCHAR", core.FamilyCharacter, true},
		{"uniqueidentifier", core.FamilyOther, true},
		{"my_udt", core.FamilyOther, true},
		{"varbinary", core.FamilyBinary, false},
		{"binary", core.FamilyBinary, false},
		{"timestamp", core.FamilyRowVersion, false},
		{"rowversion", core.FamilyRowVersion, false},
		{"image", core.FamilyLargeObject, false},
		{"text", core.FamilyLargeObject, false},
		{"ntext", core.FamilyLargeObject, false},
		{"geography", core.FamilyCLR, false},
		{"hierarchyid", core.FamilyCLR, false},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			got := Family(tt.typeName)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.diffable, got.Diffable())
		})
	}
}
