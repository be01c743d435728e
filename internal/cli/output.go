package cli

import (
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
)

// renderRows prints result rows as an aligned table. Column order is
// alphabetical; row maps carry no ordering of their own.
func renderRows(w io.Writer, rows []map[string]any) {
	if len(rows) == 0 {
		return
	}
	columns := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	header := make(table.Row, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	t.AppendHeader(header)
	for _, row := range rows {
		out := make(table.Row, len(columns))
		for i, col := range columns {
			out[i] = row[col]
		}
		t.AppendRow(out)
	}
	t.Render()
}
