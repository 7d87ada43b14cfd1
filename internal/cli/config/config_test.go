package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tdiff/pkg/adapter"
	"github.com/leapstack-labs/tdiff/pkg/core"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/tdiff/pkg/adapters/sqlserver"
)

// newFlags mirrors the flags the CLI registers.
func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.String("env", "", "")
	fs.String("host", "", "")
	fs.Int("port", 0, "")
	fs.String("database", "", "")
	fs.String("catalog", "", "")
	fs.String("output", DefaultOutput, "")
	fs.BoolP("verbose", "v", false, "")
	fs.StringSlice("ignore", nil, "")
	fs.StringSlice("mask", nil, "")
	fs.Bool("format-labels", false, "")
	fs.String("label-old-value", "", "")
	fs.String("order", DefaultOrder, "")
	fs.String("key", "", "")
	return fs
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tdiff.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const sampleConfig = `
target:
  host: db.internal
  database: hr
  user: reporter
  password: ${TDIFF_TEST_SECRET}
  options:
    encrypt: "true"
catalog: ""
report:
  attribution_column: ModifiedBy
  attribution_value: UserName
  ignore: [RowVer]
  mask: [SSN]
  format:
    enabled: true
  labels:
    changed_by: Who
  order: desc
environments:
  prod:
    target:
      host: prod-db
      database: hr_prod
  offline:
    catalog: catalog.yaml
`

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Empty(t, GetConfigFileUsed())
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, DefaultOrder, cfg.Report.Order)
	assert.Equal(t, core.DefaultLabels(), cfg.Report.Labels)
	require.NotNil(t, cfg.Target)
	assert.Equal(t, DefaultTargetType, cfg.Target.Type)
	assert.Equal(t, DefaultPort, cfg.Target.Port)
	assert.Equal(t, DefaultSchema, cfg.Target.Schema)
	assert.False(t, cfg.Target.IsConfigured())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	t.Setenv("TDIFF_TEST_SECRET", "s3cret")
	path := writeConfig(t, sampleConfig)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, "db.internal", cfg.Target.Host)
	assert.Equal(t, "hr", cfg.Target.Database)
	assert.Equal(t, "s3cret", cfg.Target.Password)
	assert.Equal(t, "true", cfg.Target.Options["encrypt"])
	assert.Equal(t, "ModifiedBy", cfg.Report.AttributionColumn)
	assert.Equal(t, []string{"RowVer"}, cfg.Report.Ignore)
	assert.Equal(t, []string{"SSN"}, cfg.Report.Mask)
	assert.True(t, cfg.Report.Format.Enabled)
	assert.Equal(t, "Who", cfg.Report.Labels.ChangedBy)
	assert.Equal(t, core.DefaultKeyLabel, cfg.Report.Labels.Key)
	assert.Equal(t, "desc", cfg.Report.Order)
}

func TestLoadConfig_FindsFileInWorkingDirectory(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "target:\n  host: local-db\n")
	t.Chdir(filepath.Dir(path))

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "tdiff.yaml", GetConfigFileUsed())
	assert.Equal(t, "local-db", cfg.Target.Host)
}

func TestLoadConfig_UnexpandedVariableIsKept(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "target:\n  host: h\n  password: ${TDIFF_TEST_UNSET_SECRET}\n")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "${TDIFF_TEST_UNSET_SECRET}", cfg.Target.Password)
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	tests := []struct {
		name     string
		env      map[string]string
		args     []string
		wantHost string
		wantPort int
		wantOut  string
	}{
		{
			name:     "file",
			wantHost: "db.internal",
			wantPort: DefaultPort,
			wantOut:  DefaultOutput,
		},
		{
			name:     "env overrides file",
			env:      map[string]string{"TDIFF_TARGET__HOST": "env-db", "TDIFF_TARGET__PORT": "1500", "TDIFF_OUTPUT": "csv"},
			wantHost: "env-db",
			wantPort: 1500,
			wantOut:  "csv",
		},
		{
			name:     "flags override env",
			env:      map[string]string{"TDIFF_TARGET__HOST": "env-db"},
			args:     []string{"--host", "flag-db", "--port", "1600", "--output", "JSON"},
			wantHost: "flag-db",
			wantPort: 1600,
			wantOut:  "json",
		},
		{
			name:     "unchanged flags do not override",
			env:      map[string]string{"TDIFF_OUTPUT": "markdown"},
			args:     []string{"--key", "42"},
			wantHost: "db.internal",
			wantPort: DefaultPort,
			wantOut:  "markdown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			fs := newFlags()
			require.NoError(t, fs.Parse(tt.args))

			cfg, err := LoadConfig(path, fs)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, cfg.Target.Host)
			assert.Equal(t, tt.wantPort, cfg.Target.Port)
			assert.Equal(t, tt.wantOut, cfg.OutputFormat)
		})
	}
}

func TestLoadConfig_ReportFlags(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, sampleConfig)
	fs := newFlags()
	require.NoError(t, fs.Parse([]string{
		"--ignore", "Photo,RowVer",
		"--mask", "Salary",
		"--label-old-value", "Before",
		"--order", "asc",
	}))

	cfg, err := LoadConfig(path, fs)
	require.NoError(t, err)
	assert.Equal(t, []string{"Photo", "RowVer"}, cfg.Report.Ignore)
	assert.Equal(t, []string{"Salary"}, cfg.Report.Mask)
	assert.Equal(t, "Before", cfg.Report.Labels.OldValue)
	assert.Equal(t, "Who", cfg.Report.Labels.ChangedBy)
	assert.Equal(t, "asc", cfg.Report.Order)
}

func TestLoadConfig_EnvLists(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, sampleConfig)
	t.Setenv("TDIFF_REPORT__IGNORE", "FirstName,LastName")
	t.Setenv("TDIFF_REPORT__MASK", "SSN, Salary,")

	cfg, err := LoadConfig(path, newFlags())
	require.NoError(t, err)
	assert.Equal(t, []string{"FirstName", "LastName"}, cfg.Report.Ignore)
	assert.Equal(t, []string{"SSN", "Salary"}, cfg.Report.Mask)
}

func TestEnvValue(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		value   string
		wantKey string
		want    interface{}
	}{
		{"scalar", "TDIFF_TARGET__HOST", "db,1", "target.host", "db,1"},
		{"ignore list", "TDIFF_REPORT__IGNORE", "A, B", "report.ignore", []string{"A", "B"}},
		{"mask single", "TDIFF_REPORT__MASK", "SSN", "report.mask", []string{"SSN"}},
		{"empty list", "TDIFF_REPORT__MASK", " , ", "report.mask", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, got := envValue(tt.env, tt.value)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadConfig_Environment(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	t.Run("environment flag", func(t *testing.T) {
		ResetConfig()
		fs := newFlags()
		require.NoError(t, fs.Parse([]string{"--env", "prod"}))

		cfg, err := LoadConfig(path, fs)
		require.NoError(t, err)
		assert.Equal(t, "prod-db", cfg.Target.Host)
		assert.Equal(t, "hr_prod", cfg.Target.Database)
		assert.Equal(t, "reporter", cfg.Target.User, "base target fields survive")
	})

	t.Run("host flag beats environment", func(t *testing.T) {
		ResetConfig()
		fs := newFlags()
		require.NoError(t, fs.Parse([]string{"--env", "prod", "--host", "flag-db"}))

		cfg, err := LoadConfig(path, fs)
		require.NoError(t, err)
		assert.Equal(t, "flag-db", cfg.Target.Host)
		assert.Equal(t, "hr_prod", cfg.Target.Database)
	})

	t.Run("environment catalog", func(t *testing.T) {
		ResetConfig()
		t.Setenv("TDIFF_ENVIRONMENT", "offline")

		cfg, err := LoadConfig(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "catalog.yaml", cfg.Catalog)
		assert.Equal(t, "db.internal", cfg.Target.Host)
	})

	t.Run("unknown environment", func(t *testing.T) {
		ResetConfig()
		fs := newFlags()
		require.NoError(t, fs.Parse([]string{"--env", "staging"}))

		_, err := LoadConfig(path, fs)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown environment "staging"`)
	})
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{
			name:      "unknown adapter",
			content:   "target:\n  type: oracle\n",
			errSubstr: "unknown adapter type",
		},
		{
			name:      "bad order",
			content:   "report:\n  order: sideways\n",
			errSubstr: "invalid report order",
		},
		{
			name:      "bad output",
			content:   "output: html\n",
			errSubstr: "unknown output format",
		},
		{
			name:      "malformed yaml",
			content:   "target: [\n",
			errSubstr: "error reading config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			_, err := LoadConfig(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
			assert.Nil(t, GetCurrentConfig())
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}

func TestValidateTarget(t *testing.T) {
	tests := []struct {
		name      string
		target    *TargetConfig
		errSubstr string
	}{
		{name: "nil target", target: nil},
		{name: "sqlserver", target: &TargetConfig{Type: "sqlserver"}},
		{name: "mssql alias", target: &TargetConfig{Type: "mssql"}},
		{name: "uppercase", target: &TargetConfig{Type: "SQLServer"}},
		{name: "empty type", target: &TargetConfig{}, errSubstr: "target type is required"},
		{name: "unknown type", target: &TargetConfig{Type: "postgres"}, errSubstr: "unknown adapter type"},
		{name: "bad port", target: &TargetConfig{Type: "sqlserver", Port: 70000}, errSubstr: "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTarget(tt.target)
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}

	var unknown *adapter.UnknownAdapterError
	require.ErrorAs(t, ValidateTarget(&TargetConfig{Type: "oracle"}), &unknown)
	assert.Contains(t, unknown.Available, "sqlserver")
}

func TestApplyTargetDefaults(t *testing.T) {
	named := &TargetConfig{Type: "MSSQL", Instance: "SQLEXPRESS"}
	ApplyTargetDefaults(named)
	assert.Equal(t, "mssql", named.Type)
	assert.Zero(t, named.Port, "named instances resolve their port through the browser service")
	assert.Equal(t, DefaultSchema, named.Schema)

	explicit := &TargetConfig{Port: 1500, Schema: "hr"}
	ApplyTargetDefaults(explicit)
	assert.Equal(t, DefaultTargetType, explicit.Type)
	assert.Equal(t, 1500, explicit.Port)
	assert.Equal(t, "hr", explicit.Schema)

	ApplyTargetDefaults(nil)
}

func TestReportConfig_Request(t *testing.T) {
	rc := ReportConfig{
		AttributionColumn: "ModifiedBy",
		AttributionValue:  "UserName",
		Ignore:            []string{"RowVer"},
		Mask:              []string{"SSN"},
		Format:            core.FormatOptions{Enabled: true},
		Labels:            core.Labels{Key: "Id"},
		Order:             "DESC",
		IncludeInitial:    true,
	}

	req := rc.Request("dbo.Person")
	assert.Equal(t, "dbo.Person", req.Table)
	assert.Equal(t, "ModifiedBy", req.AttributionColumn)
	assert.Equal(t, "UserName", req.AttributionValueColumn)
	assert.Equal(t, core.Descending, req.Order)
	assert.Equal(t, "Id", req.Labels.Key)
	assert.Equal(t, core.DefaultColumnLabel, req.Labels.Column)
	assert.True(t, req.IncludeInitial)
	assert.False(t, req.HasKey)

	req.Ignore[0] = "changed"
	assert.Equal(t, "RowVer", rc.Ignore[0])
}

func TestFlagKey(t *testing.T) {
	key, ok := FlagKey("label-changed-by")
	assert.True(t, ok)
	assert.Equal(t, "report.labels.changed_by", key)

	_, ok = FlagKey("debug")
	assert.False(t, ok)
}

func TestEnvVarRoundTrip(t *testing.T) {
	for _, name := range FlagNames() {
		key, ok := FlagKey(name)
		require.True(t, ok)
		assert.Equal(t, key, envKey(EnvVar(key)), "flag %s", name)
	}
	assert.Equal(t, "TDIFF_REPORT__LABELS__OLD_VALUE", EnvVar("report.labels.old_value"))
}

func TestGetLogger(t *testing.T) {
	fallback := GetLogger(context.Background())
	require.NotNil(t, fallback)

	logger := slog.New(slog.DiscardHandler)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
