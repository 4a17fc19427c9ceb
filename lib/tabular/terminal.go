package tabular

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

func NewTerminalTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// Render prints the table for a person to read.
func Render(w io.Writer, t Table) {
	out := NewTerminalTable(w)
	header := make(table.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	out.AppendHeader(header)
	for _, values := range t.Values() {
		row := make(table.Row, len(values))
		for i, v := range values {
			row[i] = v
		}
		out.AppendRow(row)
	}
	out.Render()
}
