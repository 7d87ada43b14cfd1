package commands

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tdiff/pkg/adapter"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display tdiff version, build information and the compiled-in adapters.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			if short {
				_, _ = fmt.Fprintln(w, version)
				return
			}
			_, _ = fmt.Fprintf(w, "tdiff v%s\n", version)
			_, _ = fmt.Fprintf(w, "commit %s, built %s, %s %s/%s\n",
				commit, date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			_, _ = fmt.Fprintf(w, "adapters: %s\n", strings.Join(adapter.ListAdapters(), ", "))
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return cmd
}
