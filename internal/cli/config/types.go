// Package config provides configuration management for the tdiff CLI.
//
// Settings are layered from defaults, a tdiff.yaml file, TDIFF_ environment
// variables and command-line flags, in increasing order of precedence.
package config

import "github.com/leapstack-labs/tdiff/pkg/core"

// TargetConfig is an alias for the shared target configuration.
// This allows CLI code to use config.TargetConfig without importing pkg/core.
type TargetConfig = core.TargetConfig

// Config holds all CLI configuration options.
type Config struct {
	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`

	// Environment selects an entry of Environments whose target overrides Target.
	Environment string        `koanf:"environment"`
	Target      *TargetConfig `koanf:"target"`

	// Catalog is an offline metadata file used instead of the server.
	Catalog string `koanf:"catalog"`

	Report       ReportConfig         `koanf:"report"`
	Environments map[string]EnvConfig `koanf:"environments"`
}

// ReportConfig holds the change report defaults a command line can override.
type ReportConfig struct {
	AttributionColumn string             `koanf:"attribution_column"`
	AttributionValue  string             `koanf:"attribution_value"`
	Ignore            []string           `koanf:"ignore"`
	Mask              []string           `koanf:"mask"`
	Format            core.FormatOptions `koanf:"format"`
	Labels            core.Labels        `koanf:"labels"`
	Order             string             `koanf:"order"`
	IncludeInitial    bool               `koanf:"include_initial"`
}

// Request builds a change report request for table from the configured defaults.
func (r ReportConfig) Request(table string) core.Request {
	return core.Request{
		Table:                  table,
		AttributionColumn:      r.AttributionColumn,
		AttributionValueColumn: r.AttributionValue,
		Ignore:                 append([]string(nil), r.Ignore...),
		Mask:                   append([]string(nil), r.Mask...),
		Format:                 r.Format,
		Labels:                 r.Labels.WithDefaults(),
		Order:                  core.Direction(r.Order),
		IncludeInitial:         r.IncludeInitial,
	}
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	Target  *TargetConfig `koanf:"target"`
	Catalog string        `koanf:"catalog"`
}

// Default configuration values.
const (
	DefaultTargetType = "sqlserver"
	DefaultSchema     = "dbo"
	DefaultPort       = 1433
	DefaultOrder      = string(core.Ascending)
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// Output formats accepted by --output.
var OutputFormats = []string{"auto", "text", "markdown", "csv", "json"}
