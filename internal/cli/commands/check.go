package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tdiff/pkg/core"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the target server can run change reports",
		Long: `Connect to the target (or read the offline catalog) and verify the engine
version and database compatibility level support temporal queries.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			caps, checkErr := cc.Engine.Check(cmd.Context())
			var capErr *core.CapabilityError
			if checkErr != nil && !errors.As(checkErr, &capErr) {
				return withHint(checkErr)
			}

			status := "ok"
			if checkErr != nil {
				status = "unsupported"
			}
			if err := cc.Renderer.Table(
				[]string{"Product Version", "Major Version", "Compatibility Level", "Status"},
				[][]any{{caps.ProductVersion, caps.MajorVersion, caps.CompatibilityLevel, status}},
			); err != nil {
				return err
			}
			return checkErr
		},
	}
}
