package display

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// Table renders rows in aligned columns, truncating to the terminal width.
type Table struct {
	headers []string
	rows    [][]string
	colors  ColorSystem
	width   int
}

// NewTable creates a table with the given headers.
func NewTable(colors ColorSystem, headers ...string) *Table {
	return &Table{
		headers: headers,
		colors:  colors,
		width:   terminalWidth(),
	}
}

// terminalWidth returns the current terminal width, defaulting to 100
// columns when not attached to a terminal.
func terminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 20 {
		return width
	}
	return 100
}

// AddRow appends one row of cells.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		}
	}
	t.rows = append(t.rows, row)
}

// Render formats the whole table.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	t.capWidths(widths)

	var b strings.Builder
	var headerCells []string
	for i, h := range t.headers {
		headerCells = append(headerCells, pad(h, widths[i]))
	}
	b.WriteString(t.colors.Colorize(strings.Join(headerCells, "  "), ColorBold))
	b.WriteString("\n")
	b.WriteString(t.colors.Colorize(strings.Repeat("-", lineWidth(widths)), ColorDim))
	b.WriteString("\n")

	for _, row := range t.rows {
		var cells []string
		for i, cell := range row {
			cells = append(cells, pad(truncate(cell, widths[i]), widths[i]))
		}
		b.WriteString(strings.Join(cells, "  "))
		b.WriteString("\n")
	}
	return b.String()
}

// capWidths shrinks the widest column until the table fits the terminal.
func (t *Table) capWidths(widths []int) {
	for lineWidth(widths) > t.width {
		widest := 0
		for i := range widths {
			if widths[i] > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= 8 {
			return
		}
		widths[widest]--
	}
}

func lineWidth(widths []int) int {
	total := 0
	for _, w := range widths {
		total += w
	}
	return total + 2*(len(widths)-1)
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}
