package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// detailWidth caps free-text columns (titles, errors, check details).
// Longer values wrap on word boundaries instead of stretching the table.
const detailWidth = 60

// column describes one table column. Numeric columns are right aligned.
// Wrapped columns are capped at detailWidth; identifiers are never wrapped
// so they stay copy-pasteable.
type column struct {
	title   string
	numeric bool
	wrap    bool
}

func textCol(title string) column    { return column{title: title} }
func numericCol(title string) column { return column{title: title, numeric: true} }
func detailCol(title string) column  { return column{title: title, wrap: true} }

func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		cfg := table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
		}
		if col.numeric {
			cfg.Align = text.AlignRight
		}
		if col.wrap {
			cfg.WidthMax = detailWidth
			cfg.WidthMaxEnforcer = text.WrapSoft
		}
		configs[i] = cfg
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			r[i] = "-"
			if i < len(row) && row[i] != "" {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
