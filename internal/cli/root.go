// Package cli provides the command-line interface for tdiff.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tdiff/internal/cli/commands"
	"github.com/leapstack-labs/tdiff/internal/cli/config"

	// Register the SQL Server adapter.
	_ "github.com/leapstack-labs/tdiff/pkg/adapters/sqlserver"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "tdiff",
		Short: "tdiff - change reports for SQL Server temporal tables",
		Long: `tdiff builds column-level change reports from the history of
system-versioned (temporal) tables in SQL Server.

For each pair of consecutive versions of a record it lists the columns whose
value changed, with the old and new value, when it changed and optionally who
changed it.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "version" {
				return nil
			}

			// Load configuration with CLI flags
			config.ResetConfig()
			cfg, err := config.LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = context.WithValue(ctx, configKey{}, cfg)
			ctx = context.WithValue(ctx, config.LoggerKey(), logger)
			cmd.SetContext(ctx)

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", slog.String("path", configFile))
			}
			if cfg.Environment != "" {
				logger.Debug("using environment", slog.String("environment", cfg.Environment))
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./tdiff.yaml)")
	pf.StringP("env", "e", "", "Environment from tdiff.yaml to use (e.g., dev, prod)")
	pf.String("catalog", "", "Offline catalog file to read metadata from instead of the server")
	pf.String("target-type", config.DefaultTargetType, "Target adapter type")
	pf.String("host", "", "SQL Server host")
	pf.Int("port", config.DefaultPort, "SQL Server port")
	pf.String("instance", "", "SQL Server named instance")
	pf.String("database", "", "Database name")
	pf.StringP("user", "U", "", "Login name (empty for integrated authentication)")
	pf.StringP("password", "P", "", "Login password (prefer TDIFF_TARGET__PASSWORD)")
	pf.String("schema", config.DefaultSchema, "Schema for table names given without one")
	pf.BoolP("verbose", "v", false, "Verbose output")
	pf.StringP("output", "o", config.DefaultOutput, "Output format (auto|text|markdown|csv|json)")

	// Register completion for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.OutputFormats, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version, GitCommit, BuildDate))
	rootCmd.AddCommand(commands.NewDiffCommand())
	rootCmd.AddCommand(commands.NewDescribeCommand())
	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// newLogger writes text logs to w: debug and up when verbose, warnings otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	// Return default config if none in context
	return &config.Config{
		OutputFormat: config.DefaultOutput,
		Target: &config.TargetConfig{
			Type:   config.DefaultTargetType,
			Port:   config.DefaultPort,
			Schema: config.DefaultSchema,
		},
		Report: config.ReportConfig{Order: config.DefaultOrder},
	}
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for tdiff.

To load completions:

Bash:
  $ source <(tdiff completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ tdiff completion bash > /etc/bash_completion.d/tdiff
  # macOS:
  $ tdiff completion bash > $(brew --prefix)/etc/bash_completion.d/tdiff

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ tdiff completion zsh > "${fpath[1]}/_tdiff"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ tdiff completion fish | source

  # To load completions for each session, execute once:
  $ tdiff completion fish > ~/.config/fish/completions/tdiff.fish

PowerShell:
  PS> tdiff completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> tdiff completion powershell > tdiff.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
