package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/tdiff/internal/cli"
	"github.com/leapstack-labs/tdiff/internal/cli/config"
	"github.com/leapstack-labs/tdiff/internal/cli/output"
)

// documentedEnvKeys are the settings most often supplied from the environment.
var documentedEnvKeys = []string{
	"environment", "target.host", "target.database", "target.user", "target.password", "report.order",
}

// generateCLIDocs writes index.md and one page per public command.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	pages := map[string][]byte{"index.md": cliIndex(root)}
	for _, cmd := range publicCommands(root) {
		pages[cmd.Name()+".md"] = commandPage(cmd)
	}

	for name, content := range pages {
		if err := os.WriteFile(filepath.Join(outDir, name), content, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		log.Printf("  Generated %s", name)
	}
	return nil
}

// publicCommands lists the subcommands a user is expected to type.
func publicCommands(root *cobra.Command) []*cobra.Command {
	var cmds []*cobra.Command
	for _, cmd := range root.Commands() {
		if cmd.Hidden || !cmd.IsAvailableCommand() || cmd.Name() == "help" {
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

func cliIndex(root *cobra.Command) []byte {
	w := NewMarkdownWriter()

	w.Frontmatter("CLI Reference", "Command-line interface reference for tdiff")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(strings.TrimSpace(root.Long))

	w.Header(2, "Installation")
	w.CodeBlock("bash", "go install github.com/leapstack-labs/tdiff/cmd/tdiff@latest")

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range publicCommands(root) {
		link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
		rows = append(rows, []string{link, cleanDescription(cmd.Short)})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Options")
	writeFlagsTable(w, root.PersistentFlags())

	w.Header(2, "Output Formats")
	w.Paragraph(fmt.Sprintf("%s selects how results are written. %s renders a table on a terminal and markdown when piped.",
		InlineCode("--output"), InlineCode(string(output.ModeAuto))))
	w.BulletList([]string{
		InlineCode(string(output.ModeText)),
		InlineCode(string(output.ModeMarkdown)),
		InlineCode(string(output.ModeCSV)),
		InlineCode(string(output.ModeJSON)),
	})

	w.Header(2, "Environment Variables")
	w.Paragraph(fmt.Sprintf("Every setting can be given as an environment variable prefixed with %s. "+
		"A double underscore separates nesting levels:", InlineCode(config.EnvPrefix)))
	var envRows [][]string
	for _, key := range documentedEnvKeys {
		envRows = append(envRows, []string{InlineCode(config.EnvVar(key)), InlineCode(key)})
	}
	w.Table([]string{"Variable", "Setting"}, envRows)
	w.Paragraph("Flags override the selected environment, which overrides environment variables, which override tdiff.yaml.")

	w.Header(2, "Exit Codes")
	w.Table([]string{"Code", "Meaning"}, [][]string{
		{InlineCode("0"), "Success"},
		{InlineCode("1"), "Error; the message and a hint are written to stderr"},
	})
	return w.Bytes()
}

func commandPage(cmd *cobra.Command) []byte {
	w := NewMarkdownWriter()

	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	w.CodeBlock("bash", cmd.UseLine())

	if cmd.HasLocalFlags() {
		w.Header(2, "Options")
		writeFlagsTable(w, cmd.LocalFlags())
	}
	if cmd.HasInheritedFlags() {
		w.Header(2, "Global Options")
		writeFlagsTable(w, cmd.InheritedFlags())
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", dedent(cmd.Example))
	}
	return w.Bytes()
}

// writeFlagsTable writes one row per visible flag, with the config key it
// overrides when there is one.
func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}

		short := ""
		if f.Shorthand != "" {
			short = InlineCode("-" + f.Shorthand)
		}
		def := f.DefValue
		if def != "" && f.Value.Type() != "bool" {
			def = InlineCode(def)
		}
		key := ""
		if k, ok := config.FlagKey(f.Name); ok {
			key = InlineCode(k)
		}

		rows = append(rows, []string{InlineCode("--" + f.Name), short, def, key, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Option", "Short", "Default", "Config Key", "Description"}, rows)
}

// dedent strips the indentation shared by every non-blank line.
func dedent(s string) string {
	lines := strings.Split(strings.Trim(s, "\n"), "\n")
	prefix, found := "", false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if !found {
			prefix, found = indent, true
			continue
		}
		for !strings.HasPrefix(indent, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
