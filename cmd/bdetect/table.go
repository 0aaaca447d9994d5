package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderTable renders rows under headers in the rounded style used across the
// CLI. Columns are left aligned; short rows are padded with empty cells.
func renderTable(headers []string, rows [][]string) string {
	tw := newTableWriter(headers)
	for _, row := range rows {
		tw.AppendRow(paddedRow(row, len(headers)))
	}
	return tw.Render()
}

// renderCounts renders label/count pairs with the count column right aligned.
// Batch and run summaries use this shape.
func renderCounts(label string, rows [][]string) string {
	tw := newTableWriter([]string{label, "Count"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	for _, row := range rows {
		tw.AppendRow(paddedRow(row, 2))
	}
	return tw.Render()
}

func newTableWriter(headers []string) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	return tw
}

func paddedRow(cells []string, width int) table.Row {
	row := make(table.Row, width)
	for i := 0; i < width; i++ {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	return row
}
