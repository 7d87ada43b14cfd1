package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/tdiff/internal/cli/config"
	"github.com/leapstack-labs/tdiff/pkg/core"
)

// ConfigField is one documented key of tdiff.yaml.
type ConfigField struct {
	Key         string
	Type        string
	Default     string
	Description string
}

// configSections mirrors the koanf tags of config.Config.
var configSections = []struct {
	Title  string
	Intro  string
	Fields []ConfigField
}{
	{
		Title: "General",
		Fields: []ConfigField{
			{Key: "output", Type: "string", Default: config.DefaultOutput, Description: "Output format: auto, text, markdown, csv or json"},
			{Key: "verbose", Type: "bool", Default: "false", Description: "Debug logging on stderr"},
			{Key: "catalog", Type: "string", Description: "Offline catalog file read instead of the server"},
			{Key: "environment", Type: "string", Description: "Entry of environments to apply"},
		},
	},
	{
		Title: "Target",
		Intro: "The SQL Server to read metadata from and run reports against. Values may reference environment variables as ${VAR}.",
		Fields: []ConfigField{
			{Key: "target.type", Type: "string", Default: config.DefaultTargetType, Description: "Adapter type (sqlserver or mssql)"},
			{Key: "target.host", Type: "string", Description: "Server host; required to connect"},
			{Key: "target.port", Type: "int", Default: fmt.Sprint(config.DefaultPort), Description: "Server port, unused with a named instance"},
			{Key: "target.instance", Type: "string", Description: "Named instance"},
			{Key: "target.database", Type: "string", Description: "Database name"},
			{Key: "target.user", Type: "string", Description: "Login name; empty for integrated authentication"},
			{Key: "target.password", Type: "string", Description: "Login password"},
			{Key: "target.schema", Type: "string", Default: config.DefaultSchema, Description: "Schema for table names given without one"},
			{Key: "target.options", Type: "map[string]string", Description: "Extra connection string parameters such as encrypt"},
		},
	},
	{
		Title: "Report",
		Intro: "Defaults for diff and describe.",
		Fields: []ConfigField{
			{Key: "report.attribution_column", Type: "string", Description: "Foreign key column naming who made a change"},
			{Key: "report.attribution_value", Type: "string", Description: "Column of the referenced table to display"},
			{Key: "report.ignore", Type: "[]string", Description: "Columns left out of the comparison"},
			{Key: "report.mask", Type: "[]string", Description: "Columns reported as *****"},
			{Key: "report.format.enabled", Type: "bool", Default: "false", Description: "Turn FirstName into \"First Name\""},
			{Key: "report.format.preserve_capitals", Type: "bool", Default: "false", Description: "Keep runs of capitals together"},
			{Key: "report.format.use_descriptions", Type: "bool", Default: "false", Description: "Use stored column descriptions as labels"},
			{Key: "report.order", Type: "string", Default: config.DefaultOrder, Description: "ASC or DESC by change time"},
			{Key: "report.include_initial", Type: "bool", Default: "false", Description: "Also report the first version of each record"},
			{Key: "report.labels.key", Type: "string", Default: core.DefaultKeyLabel, Description: "Header of the key column"},
			{Key: "report.labels.column", Type: "string", Default: core.DefaultColumnLabel, Description: "Header of the column name column"},
			{Key: "report.labels.old_value", Type: "string", Default: core.DefaultOldValueLabel, Description: "Header of the old value column"},
			{Key: "report.labels.new_value", Type: "string", Default: core.DefaultNewValueLabel, Description: "Header of the new value column"},
			{Key: "report.labels.changed_by", Type: "string", Default: core.DefaultChangedByLabel, Description: "Header of the attribution column"},
			{Key: "report.labels.changed_at", Type: "string", Default: core.DefaultChangedAtLabel, Description: "Header of the change time column"},
		},
	},
}

// generateConfigDocs writes configuration.md.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	flagFor := map[string]string{}
	for _, name := range config.FlagNames() {
		key, _ := config.FlagKey(name)
		flagFor[key] = "--" + name
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "tdiff configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("tdiff reads `tdiff.yaml` (or `tdiff.yml`) from the working directory, or the file named by `--config`.")

	headers := []string{"Key", "Type", "Default", "Flag", "Environment", "Description"}
	for _, section := range configSections {
		w.Header(2, section.Title)
		if section.Intro != "" {
			w.Paragraph(section.Intro)
		}
		var rows [][]string
		for _, f := range section.Fields {
			def, flagName := "-", "-"
			if f.Default != "" {
				def = InlineCode(f.Default)
			}
			if n, ok := flagFor[f.Key]; ok {
				flagName = InlineCode(n)
			}
			rows = append(rows, []string{InlineCode(f.Key), f.Type, def, flagName, InlineCode(config.EnvVar(f.Key)), f.Description})
		}
		w.Table(headers, rows)
	}

	w.Header(2, "Environments")
	w.Paragraph("Entries under `environments` override `target` and `catalog` when selected with `--env` or `environment`.")
	w.CodeBlock("yaml", `target:
  host: dev-sql
  database: hr
environments:
  prod:
    target:
      host: prod-sql
  offline:
    catalog: catalog.yaml`)

	filename := filepath.Join(outDir, "configuration.md")
	log.Printf("  Generated configuration.md")
	return os.WriteFile(filename, w.Bytes(), 0600)
}
