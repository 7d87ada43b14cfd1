package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tdiff/internal/cli/config"
	"github.com/leapstack-labs/tdiff/internal/engine"
	"github.com/leapstack-labs/tdiff/pkg/core"
)

// NewDiffCommand creates the diff command.
func NewDiffCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "diff <table>",
		Short: "Report column-level changes of a temporal table",
		Long: `Build a change report for a system-versioned table: one row per column
whose value differs between two consecutive versions of a record.

Every flag below can also be set under report: in tdiff.yaml or through
TDIFF_REPORT__* environment variables.`,
		Example: `  # All changes to dbo.Person, newest first
  tdiff diff dbo.Person --order desc

  # One record, with who made each change
  tdiff diff dbo.Person --key 42 --attribution-column ModifiedBy --attribution-value UserName

  # Print the generated query instead of running it
  tdiff diff dbo.Person --mask SSN --ignore RowVer --debug`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, args[0], debug)
		},
	}

	cmd.Flags().String("key", "", "Only report changes for this primary key value")
	cmd.Flags().BoolVar(&debug, "debug", false, "Print the generated query instead of executing it")
	addReportFlags(cmd)

	return cmd
}

// addReportFlags registers the flags that map onto report: settings.
func addReportFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("attribution-column", "", "Foreign key column naming who made a change")
	f.String("attribution-value", "", "Column of the referenced table to display for attribution")
	f.StringSlice("ignore", nil, "Columns to leave out of the comparison")
	f.StringSlice("mask", nil, "Columns whose values are reported as *****")
	f.Bool("format-labels", false, "Turn column names like FirstName into \"First Name\"")
	f.Bool("preserve-capitals", false, "Keep runs of capitals together when formatting labels")
	f.Bool("use-descriptions", false, "Use stored column descriptions as labels")
	f.String("order", config.DefaultOrder, "Order by change time: asc or desc")
	f.Bool("include-initial", false, "Also report the first recorded version of each record")
	f.String("label-key", core.DefaultKeyLabel, "Header of the key column")
	f.String("label-column", core.DefaultColumnLabel, "Header of the column name column")
	f.String("label-old-value", core.DefaultOldValueLabel, "Header of the old value column")
	f.String("label-new-value", core.DefaultNewValueLabel, "Header of the new value column")
	f.String("label-changed-by", core.DefaultChangedByLabel, "Header of the attribution column")
	f.String("label-changed-at", core.DefaultChangedAtLabel, "Header of the change time column")

	_ = cmd.RegisterFlagCompletionFunc("order", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"asc", "desc"}, cobra.ShellCompDirectiveNoFileComp
	})
}

func runDiff(cmd *cobra.Command, table string, debug bool) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	req := cc.Cfg.Report.Request(table)
	if cmd.Flags().Changed("key") {
		req.KeyValue, _ = cmd.Flags().GetString("key")
		req.HasKey = true
	}
	req.Debug = debug

	report, err := cc.Engine.Run(cmd.Context(), req)
	if err != nil {
		return withHint(err)
	}

	if !report.Executed {
		return cc.Renderer.SQL(report.Query.Text)
	}

	cc.Logger.Debug("rendering report",
		slog.String("run_id", report.RunID),
		slog.Int("rows", len(report.Rows)))
	return cc.Renderer.Table(report.Columns, report.Rows)
}

// withHint adds a next step to errors a user can fix from the command line.
func withHint(err error) error {
	switch {
	case errors.Is(err, engine.ErrNoTarget):
		return fmt.Errorf("%w\nHint: set --host (or target.host in tdiff.yaml), or pass --catalog with --debug to only print the query", err)
	case errors.Is(err, core.ErrTableNotFound):
		return fmt.Errorf("%w\nHint: qualify the name as schema.table or set --schema", err)
	case errors.Is(err, core.ErrNotTemporal):
		return fmt.Errorf("%w\nHint: enable SYSTEM_VERSIONING on the table to record its history", err)
	case errors.Is(err, core.ErrCompositeKeyFilter):
		return fmt.Errorf("%w\nHint: drop --key to report every record", err)
	default:
		return err
	}
}
