package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is human-readable output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is indented JSON output.
	FormatJSON OutputFormat = "json"
)

// ParseFormat validates an --output flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", NewConfigError("output", fmt.Sprintf("unsupported format %q (text, json)", s))
}

// Table is a result that knows how to render itself as text columns.
type Table interface {
	Header() []string
	Rows() [][]string
}

// Printer writes command results in the selected format.
type Printer struct {
	w      io.Writer
	format OutputFormat
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer, format OutputFormat) *Printer {
	return &Printer{w: w, format: format}
}

// Format returns the output format of the printer.
func (p *Printer) Format() OutputFormat { return p.format }

// Print writes v. In text mode a Table is rendered as aligned columns, a
// fmt.Stringer through its String method, and anything else as JSON.
func (p *Printer) Print(v any) error {
	if p.format == FormatJSON {
		return p.JSON(v)
	}

	switch t := v.(type) {
	case Table:
		return p.table(t)
	case fmt.Stringer:
		_, err := fmt.Fprintln(p.w, t.String())
		return err
	case string:
		_, err := fmt.Fprintln(p.w, t)
		return err
	default:
		return p.JSON(v)
	}
}

// JSON writes v as indented JSON regardless of the format.
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Status writes a one-line status message in text mode. JSON output stays
// machine readable, so status lines are dropped there.
func (p *Printer) Status(format string, args ...any) {
	if p.format == FormatJSON {
		return
	}
	fmt.Fprintf(p.w, "✓ "+format+"\n", args...)
}

func (p *Printer) table(t Table) error {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	if h := t.Header(); len(h) > 0 {
		fmt.Fprintln(tw, strings.Join(h, "\t"))
	}
	for _, row := range t.Rows() {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
