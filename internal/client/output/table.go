package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Placeholder is printed for cells that have no value
const Placeholder = "-"

// Table renders aligned columns. Empty cells show Placeholder.
type Table struct {
	tw      *tabwriter.Writer
	columns int
}

// NewTable creates a table and writes its header row
func NewTable(w io.Writer, columns ...string) *Table {
	t := &Table{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0), columns: len(columns)}
	fmt.Fprintln(t.tw, strings.Join(columns, "\t"))
	return t
}

// Row writes one row. Missing trailing cells are filled with Placeholder.
func (t *Table) Row(cells ...string) {
	row := make([]string, max(t.columns, len(cells)))
	for i := range row {
		if i < len(cells) && cells[i] != "" {
			row[i] = cells[i]
		} else {
			row[i] = Placeholder
		}
	}
	fmt.Fprintln(t.tw, strings.Join(row, "\t"))
}

// Flush writes buffered output
func (t *Table) Flush() error {
	return t.tw.Flush()
}

// Detail is one labelled line in a details block
type Detail struct {
	Label string
	Value string
}

// WriteDetails prints indented "Label: value" lines with aligned values.
// Details with an empty value are skipped.
func WriteDetails(w io.Writer, details ...Detail) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, d := range details {
		if d.Value == "" {
			continue
		}
		fmt.Fprintf(tw, "  %s:\t%s\n", d.Label, d.Value)
	}
	return tw.Flush()
}

// PrintSuccess prints a success message with checkmark
func PrintSuccess(w io.Writer, message string) {
	mark(w, "✓", message)
}

// PrintError prints an error message
func PrintError(w io.Writer, message string) {
	mark(w, "✗", message)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	mark(w, "⚠", message)
}

func mark(w io.Writer, symbol, message string) {
	fmt.Fprintf(w, "%s %s\n", symbol, message)
}
