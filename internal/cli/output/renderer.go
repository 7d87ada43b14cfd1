// Package output renders command results as text tables, markdown, CSV or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"
)

// Mode selects how results are written.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto" // text on a terminal, markdown otherwise
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeCSV      Mode = "csv"
	ModeJSON     Mode = "json"
)

// Renderer writes results to stdout and notices to stderr.
type Renderer struct {
	out   io.Writer
	err   io.Writer
	mode  Mode
	isTTY bool
}

// NewRenderer creates a renderer. ModeAuto is resolved against out.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	r := &Renderer{out: out, err: errOut, mode: mode}
	if f, ok := out.(*os.File); ok {
		r.isTTY = term.IsTerminal(int(f.Fd()))
	}
	return r
}

// Mode returns the effective output mode.
func (r *Renderer) Mode() Mode {
	switch r.mode {
	case ModeText, ModeMarkdown, ModeCSV, ModeJSON:
		return r.mode
	case "md":
		return ModeMarkdown
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// Out returns the result writer.
func (r *Renderer) Out() io.Writer { return r.out }

// Table renders rows under headers. Values are formatted with FormatValue.
func (r *Renderer) Table(headers []string, rows [][]any) error {
	if r.Mode() == ModeJSON {
		return r.JSON(records(headers, rows))
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	// Headers are user-chosen labels; keep their case.
	t.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	t.AppendHeader(header)

	for _, row := range rows {
		out := make(table.Row, len(row))
		for i, v := range row {
			out[i] = FormatValue(v)
		}
		t.AppendRow(out)
	}

	switch r.Mode() {
	case ModeCSV:
		t.RenderCSV()
	case ModeMarkdown:
		t.RenderMarkdown()
		_, _ = fmt.Fprintf(r.out, "\n(%d rows)\n", len(rows))
	default:
		t.Render()
		_, _ = fmt.Fprintf(r.out, "(%d rows)\n", len(rows))
	}
	return nil
}

// SQL writes query text. Markdown wraps it in a fenced block.
func (r *Renderer) SQL(query string) error {
	switch r.Mode() {
	case ModeJSON:
		return r.JSON(map[string]string{"query": query})
	case ModeMarkdown:
		_, err := fmt.Fprintf(r.out, "```sql\n%s\n```\n", strings.TrimRight(query, "\n"))
		return err
	default:
		_, err := fmt.Fprintln(r.out, strings.TrimRight(query, "\n"))
		return err
	}
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Notice writes a line to stderr.
func (r *Renderer) Notice(format string, args ...any) {
	_, _ = fmt.Fprintf(r.err, format+"\n", args...)
}

// FormatValue renders a scanned database value for display.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return x.Format("2006-01-02 15:04:05.9999999")
	case []byte:
		return string(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// records pairs each row with its headers, keeping header order.
func records(headers []string, rows [][]any) []orderedRecord {
	out := make([]orderedRecord, len(rows))
	for i, row := range rows {
		rec := orderedRecord{keys: headers, values: make([]any, len(headers))}
		for j := range headers {
			if j < len(row) {
				rec.values[j] = jsonValue(row[j])
			}
		}
		out[i] = rec
	}
	return out
}

func jsonValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return v
	}
}

type orderedRecord struct {
	keys   []string
	values []any
}

// MarshalJSON writes the record as an object whose keys follow column order.
func (o orderedRecord) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(o.values[i])
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}
