package ui

import (
	"strings"
	"unicode/utf8"
)

// Table provides minimal list rendering with spacing alignment, no borders.
type Table struct {
	rows       [][]string
	colWidths  []int
	colPadding int
	maxWidth   int
}

// NewTable creates a new table with the specified number of columns
func NewTable(cols int) *Table {
	return &Table{
		colWidths:  make([]int, cols),
		colPadding: 2,
	}
}

// SetMaxWidth caps rendered lines at w runes; a longer line is truncated
// with an ellipsis. Zero or negative means no cap.
func (t *Table) SetMaxWidth(w int) {
	t.maxWidth = w
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.colWidths))
	for i := 0; i < len(t.colWidths) && i < len(cells); i++ {
		row[i] = cells[i]
		if len(cells[i]) > t.colWidths[i] {
			t.colWidths[i] = len(cells[i])
		}
	}
	t.rows = append(t.rows, row)
}

// String renders the table as a string
func (t *Table) String() string {
	if len(t.rows) == 0 {
		return ""
	}

	var sb strings.Builder
	padding := strings.Repeat(" ", t.colPadding)

	for _, row := range t.rows {
		var line strings.Builder
		for i, cell := range row {
			if i > 0 {
				line.WriteString(padding)
			}
			// Left-align every column; the last column is never padded.
			if i < len(row)-1 {
				line.WriteString(cell)
				line.WriteString(strings.Repeat(" ", t.colWidths[i]-len(cell)))
			} else {
				line.WriteString(cell)
			}
		}
		sb.WriteString(truncate(line.String(), t.maxWidth))
		sb.WriteString("\n")
	}
	return sb.String()
}

func truncate(line string, width int) string {
	if width <= 0 || utf8.RuneCountInString(line) <= width {
		return line
	}
	runes := []rune(line)
	return string(runes[:width-1]) + "…"
}
