package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tdiff/internal/engine"
	"github.com/leapstack-labs/tdiff/pkg/core"
)

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <table>",
		Short: "Show how the columns of a table take part in a change report",
		Long: `Resolve a table, and its attribution table when one is configured, and
list every column with its type, label and role in the comparison.`,
		Example: `  tdiff describe dbo.Person --attribution-column ModifiedBy --attribution-value UserName --mask SSN`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			desc, err := cc.Engine.Describe(cmd.Context(), cc.Cfg.Report.Request(args[0]))
			if err != nil {
				return withHint(err)
			}
			return cc.Renderer.Table(describeHeaders, describeRows(desc))
		},
	}

	addReportFlags(cmd)
	return cmd
}

var describeHeaders = []string{"Table", "Alias", "Column", "Label", "Type", "Role", "Masked"}

func describeRows(desc *engine.Description) [][]any {
	var rows [][]any
	for _, t := range desc.Resolution.Tables {
		for _, c := range desc.Columns.Table(t.ID) {
			rows = append(rows, []any{
				t.QualifiedName(),
				t.Alias,
				c.RawName,
				c.Label,
				c.TypeSignature,
				columnRole(t, c),
				c.IsMasked && c.Tracked(),
			})
		}
	}
	return rows
}

// columnRole names the part a column plays in the report.
func columnRole(t core.TableRef, c core.ColumnInfo) string {
	var roles []string
	switch {
	case c.IsPrimaryKey:
		roles = append(roles, "key")
	case c.IsPeriodStart:
		roles = append(roles, "period start")
	case c.IsPeriodEnd:
		roles = append(roles, "period end")
	case t.Role != core.RolePrimary:
		roles = append(roles, t.Role.String())
	case c.IsIgnored:
		roles = append(roles, "ignored")
	case !c.Family.Diffable():
		roles = append(roles, "skipped ("+c.Family.String()+")")
	default:
		roles = append(roles, "tracked")
	}
	if c.IsReferencedByOtherTable {
		roles = append(roles, "referenced")
	}
	return strings.Join(roles, ", ")
}
