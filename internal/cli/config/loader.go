package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/tdiff/pkg/core"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// EnvPrefix prefixes every environment variable read by the loader.
// A double underscore separates nesting levels: TDIFF_TARGET__HOST is target.host.
const EnvPrefix = "TDIFF_"

// Config file names searched in the working directory.
var configFileNames = []string{"tdiff.yaml", "tdiff.yml"}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// flagKeys maps command-line flag names to config keys.
// Flags not listed here (--config, --key, --debug) are read by commands directly.
var flagKeys = map[string]string{
	"verbose":            "verbose",
	"output":             "output",
	"env":                "environment",
	"catalog":            "catalog",
	"target-type":        "target.type",
	"host":               "target.host",
	"port":               "target.port",
	"instance":           "target.instance",
	"database":           "target.database",
	"user":               "target.user",
	"password":           "target.password",
	"schema":             "target.schema",
	"attribution-column": "report.attribution_column",
	"attribution-value":  "report.attribution_value",
	"ignore":             "report.ignore",
	"mask":               "report.mask",
	"format-labels":      "report.format.enabled",
	"preserve-capitals":  "report.format.preserve_capitals",
	"use-descriptions":   "report.format.use_descriptions",
	"label-key":          "report.labels.key",
	"label-column":       "report.labels.column",
	"label-old-value":    "report.labels.old_value",
	"label-new-value":    "report.labels.new_value",
	"label-changed-by":   "report.labels.changed_by",
	"label-changed-at":   "report.labels.changed_at",
	"order":              "report.order",
	"include-initial":    "report.include_initial",
}

// FlagKey returns the config key a flag is loaded into.
func FlagKey(name string) (string, bool) {
	key, ok := flagKeys[name]
	return key, ok
}

// FlagNames returns the names of the flags loaded into the config, sorted.
func FlagNames() []string {
	names := make([]string, 0, len(flagKeys))
	for name := range flagKeys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnvVar returns the environment variable that sets a config key.
func EnvVar(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "__"))
}

// findConfigFile finds the config file to use.
// Priority: explicit path > tdiff.yaml > tdiff.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// 1. Load defaults
	labels := core.DefaultLabels()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"verbose":                  false,
		"output":                   DefaultOutput,
		"report.order":             DefaultOrder,
		"report.labels.key":        labels.Key,
		"report.labels.column":     labels.Column,
		"report.labels.old_value":  labels.OldValue,
		"report.labels.new_value":  labels.NewValue,
		"report.labels.changed_by": labels.ChangedBy,
		"report.labels.changed_at": labels.ChangedAt,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables
	// Transform: TDIFF_TARGET__HOST -> target.host
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Apply the selected environment over the base target
	if err := applyEnvironment(flags); err != nil {
		return nil, err
	}

	// 5. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 6. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.Target == nil {
		cfg.Target = &TargetConfig{}
	}
	ApplyTargetDefaults(cfg.Target)

	// Expand environment variables in target
	expandTargetEnvVars(cfg.Target)

	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)
	cfg.Report.Labels = cfg.Report.Labels.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// applyEnvironment merges environments.<name>.target over target and
// environments.<name>.catalog over catalog. The name comes from --env or the
// environment key.
func applyEnvironment(flags *pflag.FlagSet) error {
	name := k.String("environment")
	if changed(flags, "env") {
		name, _ = flags.GetString("env")
	}
	if name == "" {
		return nil
	}

	base := "environments." + name
	if !k.Exists(base) {
		return fmt.Errorf("unknown environment %q\nHint: define it under environments: in %s", name, configFileNames[0])
	}
	if k.Exists(base + ".target") {
		if err := k.MergeAt(k.Cut(base+".target"), "target"); err != nil {
			return fmt.Errorf("failed to apply environment %q: %w", name, err)
		}
	}
	if c := k.String(base + ".catalog"); c != "" {
		if err := k.Set("catalog", c); err != nil {
			return fmt.Errorf("failed to apply environment %q: %w", name, err)
		}
	}
	return nil
}

// envKey maps an environment variable name to a config key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// listKeys are the config keys whose env values are comma-separated lists.
var listKeys = map[string]bool{
	"report.ignore": true,
	"report.mask":   true,
}

// envValue maps an environment variable to a config key and value, splitting
// list keys on commas.
func envValue(name, value string) (string, interface{}) {
	key := envKey(name)
	if !listKeys[key] {
		return key, value
	}
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return key, items
}

func changed(flags *pflag.FlagSet, name string) bool {
	if flags == nil {
		return false
	}
	f := flags.Lookup(name)
	return f != nil && f.Changed
}

// ApplyTargetDefaults fills the target type, port and schema when unset.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}
	if t.Type == "" {
		t.Type = DefaultTargetType
	}
	t.Type = strings.ToLower(t.Type)
	if t.Port == 0 && t.Instance == "" {
		t.Port = DefaultPort
	}
	if t.Schema == "" {
		t.Schema = DefaultSchema
	}
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandTargetEnvVars expands environment variables in sensitive target fields.
func expandTargetEnvVars(t *TargetConfig) {
	if t == nil {
		return
	}
	t.Password = expandEnvVars(t.Password)
	t.User = expandEnvVars(t.User)
	t.Host = expandEnvVars(t.Host)
	t.Instance = expandEnvVars(t.Instance)
	t.Database = expandEnvVars(t.Database)
	for key, v := range t.Options {
		t.Options[key] = expandEnvVars(v)
	}
}
