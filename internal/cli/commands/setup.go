package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tdiff/internal/cli/config"
	"github.com/leapstack-labs/tdiff/internal/cli/output"
	"github.com/leapstack-labs/tdiff/internal/engine"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger := config.GetLogger(cmd.Context())

	eng, err := CreateEngine(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	cleanup := func() {
		if err := eng.Close(); err != nil {
			logger.Warn("failed to close engine", slog.String("error", err.Error()))
		}
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: r,
	}, cleanup, nil
}

// getConfig returns the configuration loaded by the root command, or loads
// it from the command's flags when the command runs on its own.
func getConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.LoadConfig(cfgFile, cmd.Flags())
}

// CreateEngine creates an engine from the configuration. The server
// connection is only configured when the target names a host.
func CreateEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	engineCfg := engine.Config{
		CatalogPath: cfg.Catalog,
		Logger:      logger,
	}

	if cfg.Target != nil {
		engineCfg.Schema = cfg.Target.Schema
		if cfg.Target.IsConfigured() {
			ac := cfg.Target.AdapterConfig()
			engineCfg.AdapterConfig = &ac
		}
	}

	eng, err := engine.New(engineCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	return eng, nil
}
