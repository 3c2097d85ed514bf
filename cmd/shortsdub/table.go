package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// tableLayout describes one rendered table. Rows shorter than Headers are
// padded with empty cells.
type tableLayout struct {
	Title   string
	Headers []string
	Aligns  []columnAlignment
	Rows    [][]string
	// MaxWidth truncates wide columns by index; zero means unlimited.
	MaxWidth map[int]int
}

func renderTable(layout tableLayout) string {
	columns := len(layout.Headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if layout.Title != "" {
		tw.SetTitle(layout.Title)
	}

	header := make(table.Row, columns)
	for i, h := range layout.Headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range layout.Rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(layout.Aligns) && layout.Aligns[i] == alignRight {
			align = text.AlignRight
		}
		cc := table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		}
		if width := layout.MaxWidth[i]; width > 0 {
			cc.WidthMax = width
			cc.WidthMaxEnforcer = text.Trim
		}
		configs = append(configs, cc)
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
