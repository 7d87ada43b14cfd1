package testutil

import (
	"testing"

	"github.com/leapstack-labs/tdiff/pkg/catalog"
)

// PeopleCatalogYAML describes the sample tables used across package tests.
//
//   - dbo.Person: temporal, single int key, attribution via ModifiedBy, one
//     column of every excluded family.
//   - dbo.AppUser: lookup table for Person.ModifiedBy.
//   - sales.OrderLine: temporal with a two-column key.
//   - dbo.Snapshot: not temporal.
//   - dbo.KeyOnly: temporal with nothing to compare.
//   - dbo.Heap: temporal without a primary key.
const PeopleCatalogYAML = `
engine:
  product_version: "16.0.1000.6"
  major_version: 16
  compatibility_level: 160
tables:
  - schema: dbo
    name: Person
    object_id: 101
    columns:
      - {name: Id, type: int, primary_key: true, identity: true}
      - {name: FirstName, type: nvarchar, max_length: 200, nullable: true}
      - {name: LastName, type: nvarchar, max_length: 200, nullable: true}
      - {name: SSN, type: char, max_length: 11, nullable: true, description: Social security number}
      - {name: Salary, type: decimal, precision: 10, scale: 2, nullable: true}
      - {name: Photo, type: varbinary, max_length: -1, nullable: true}
      - {name: RowVer, type: timestamp, max_length: 8}
      - {name: BirthDate, type: date, nullable: true}
      - {name: ModifiedBy, type: int, nullable: true}
      - {name: ValidFrom, type: datetime2, scale: 7, period: start}
      - {name: ValidTo, type: datetime2, scale: 7, period: end}
    foreign_keys:
      - {name: FK_Person_AppUser, column: ModifiedBy, ref_table: AppUser, ref_column: Id}
  - schema: dbo
    name: AppUser
    object_id: 202
    temporal: false
    columns:
      - {name: Id, type: int, primary_key: true}
      - {name: UserName, type: nvarchar, max_length: 512}
  - schema: sales
    name: OrderLine
    object_id: 303
    columns:
      - {name: OrderId, type: int, primary_key: true}
      - {name: LineNo, type: smallint, primary_key: true}
      - {name: Qty, type: int}
      - {name: SysStart, type: datetime2, scale: 2, period: start}
      - {name: SysEnd, type: datetime2, scale: 2, period: end}
  - schema: dbo
    name: Snapshot
    object_id: 404
    temporal: false
    columns:
      - {name: Id, type: int, primary_key: true}
  - schema: dbo
    name: KeyOnly
    object_id: 505
    columns:
      - {name: Id, type: int, primary_key: true}
      - {name: Blob, type: image, max_length: 16}
      - {name: ValidFrom, type: datetime2, period: start}
      - {name: ValidTo, type: datetime2, period: end}
  - schema: dbo
    name: Heap
    object_id: 606
    columns:
      - {name: Note, type: nvarchar, max_length: 100}
      - {name: ValidFrom, type: datetime2, period: start}
      - {name: ValidTo, type: datetime2, period: end}
`

// PeopleCatalog parses PeopleCatalogYAML.
func PeopleCatalog(t testing.TB) *catalog.Static {
	t.Helper()
	s, err := catalog.Parse([]byte(PeopleCatalogYAML))
	if err != nil {
		t.Fatalf("parse people catalog: %v", err)
	}
	return s
}
