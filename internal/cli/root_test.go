package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tdiff/internal/cli/config"
	"github.com/leapstack-labs/tdiff/internal/testutil"
)

// setupWorkspace moves into an empty directory holding the sample catalog.
func setupWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testutil.PeopleCatalogYAML), 0o600))
	t.Cleanup(config.ResetConfig)
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRoot_DiffDebug(t *testing.T) {
	catalog := setupWorkspace(t)

	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "plain",
			args:     []string{"diff", "dbo.Person"},
			contains: []string{"FROM [dbo].[Person] FOR SYSTEM_TIME ALL AS [P]", "N'FirstName'", "[v].[previous_at] IS NOT NULL", "ORDER BY"},
			excludes: []string{"N'*****'", "[AU]"},
		},
		{
			name:     "formatted and masked",
			args:     []string{"diff", "Person", "--format-labels", "--mask", "SSN", "--ignore", "BirthDate"},
			contains: []string{"N'First Name'", "N'*****'"},
			excludes: []string{"[BirthDate]"},
		},
		{
			name:     "attribution and key",
			args:     []string{"diff", "dbo.Person", "--attribution-column", "ModifiedBy", "--attribution-value", "UserName", "--key", "42"},
			contains: []string{"[dbo].[AppUser] AS [AU]", "N'Unknown'", "WHERE [P].[Id] = N'42'"},
		},
		{
			name:     "descending with initial versions",
			args:     []string{"diff", "dbo.Person", "--order", "desc", "--include-initial"},
			contains: []string{"DESC"},
			excludes: []string{"[v].[previous_at] IS NOT NULL"},
		},
		{
			name:     "custom labels",
			args:     []string{"diff", "dbo.Person", "--label-old-value", "Before", "--label-new-value", "After"},
			contains: []string{"[Before]", "[After]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "--catalog", catalog, "--debug", "--output", "text")
			stdout, _, err := execute(t, args...)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, stdout, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, stdout, unwanted)
			}
		})
	}
}

func TestRoot_DiffDebugMarkdownAndJSON(t *testing.T) {
	catalog := setupWorkspace(t)

	stdout, _, err := execute(t, "diff", "dbo.Person", "--catalog", catalog, "--debug")
	require.NoError(t, err)
	assert.Contains(t, stdout, "```sql\n")

	stdout, _, err = execute(t, "diff", "dbo.Person", "--catalog", catalog, "--debug", "-o", "json")
	require.NoError(t, err)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &decoded))
	assert.Contains(t, decoded["query"], "FOR SYSTEM_TIME ALL")
}

func TestRoot_ConfigFile(t *testing.T) {
	catalog := setupWorkspace(t)
	yaml := "catalog: " + catalog + "\nreport:\n  mask: [Salary]\n  format:\n    enabled: true\n  labels:\n    key: Person Id\n"
	require.NoError(t, os.WriteFile("tdiff.yaml", []byte(yaml), 0o600))

	stdout, stderr, err := execute(t, "diff", "dbo.Person", "--debug", "-o", "text", "-v")
	require.NoError(t, err)
	assert.Contains(t, stdout, "N'*****'")
	assert.Contains(t, stdout, "[Person Id]")
	assert.Contains(t, stderr, "using config file")
}

func TestRoot_Describe(t *testing.T) {
	catalog := setupWorkspace(t)

	stdout, _, err := execute(t, "describe", "dbo.Person", "--catalog", catalog, "--mask", "SSN", "-o", "json")
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	require.NotEmpty(t, rows)
	assert.Equal(t, "dbo.Person", rows[0]["Table"])
	assert.Equal(t, "Id", rows[0]["Column"])
	assert.Equal(t, "key", rows[0]["Role"])

	found := false
	for _, r := range rows {
		if r["Column"] == "SSN" {
			found = true
			assert.Equal(t, true, r["Masked"])
			assert.Equal(t, "char(11)", r["Type"])
		}
	}
	assert.True(t, found)
}

func TestRoot_Check(t *testing.T) {
	catalog := setupWorkspace(t)

	stdout, _, err := execute(t, "check", "--catalog", catalog, "-o", "csv")
	require.NoError(t, err)
	assert.Contains(t, stdout, "16.0.1000.6,16,160,ok")
}

func TestRoot_Errors(t *testing.T) {
	catalog := setupWorkspace(t)

	tests := []struct {
		name      string
		args      []string
		errSubstr string
	}{
		{"no target", []string{"diff", "dbo.Person"}, "Hint: set --host"},
		{"bad order", []string{"diff", "dbo.Person", "--catalog", catalog, "--order", "sideways"}, "invalid report order"},
		{"bad output", []string{"check", "--catalog", catalog, "-o", "xml"}, "unknown output format"},
		{"missing table", []string{"diff", "dbo.Ghost", "--catalog", catalog, "--debug"}, "table not found"},
		{"not temporal", []string{"diff", "dbo.Snapshot", "--catalog", catalog, "--debug"}, "SYSTEM_VERSIONING"},
		{"composite key filter", []string{"diff", "sales.OrderLine", "--catalog", catalog, "--key", "1", "--debug"}, "drop --key"},
		{"no table", []string{"diff", "--catalog", catalog}, "accepts 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestRoot_VersionAndCompletion(t *testing.T) {
	setupWorkspace(t)

	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "tdiff v"+Version)

	stdout, _, err = execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, stdout, "tdiff")
}

func TestGetConfig_Default(t *testing.T) {
	cfg := GetConfig(t.Context())
	assert.Equal(t, config.DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, config.DefaultSchema, cfg.Target.Schema)
	assert.Equal(t, config.DefaultOrder, cfg.Report.Order)
}
