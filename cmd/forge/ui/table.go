package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Align selects per-column cell alignment.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Table renders static tabular data for command output. Numeric columns
// read better right-aligned, so alignment is declared per column.
type Table struct {
	Title   string
	Headers []string
	Aligns  []Align
	Rows    [][]string
}

// NewTable creates a table with the given title and headers. Alignment
// defaults to left for every column.
func NewTable(title string, headers ...string) *Table {
	return &Table{
		Title:   title,
		Headers: headers,
		Aligns:  make([]Align, len(headers)),
	}
}

// RightAlign marks columns (by index) as right-aligned.
func (t *Table) RightAlign(cols ...int) *Table {
	for _, c := range cols {
		if c >= 0 && c < len(t.Aligns) {
			t.Aligns[c] = AlignRight
		}
	}
	return t
}

// AddRow appends a row. Short rows are padded with empty cells.
func (t *Table) AddRow(cells ...string) {
	for len(cells) < len(t.Headers) {
		cells = append(cells, "")
	}
	t.Rows = append(t.Rows, cells[:len(t.Headers)])
}

// View renders the table using the provided styles.
func (t *Table) View(styles Styles) string {
	if len(t.Rows) == 0 {
		return styles.Muted.Render("(no rows)") + "\n"
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(styles.Title.Render(t.Title))
		sb.WriteString("\n")
	}

	for i, h := range t.Headers {
		sb.WriteString(styles.Bold.Render(pad(h, widths[i], t.Aligns[i])))
		if i < len(t.Headers)-1 {
			sb.WriteString("  ")
		}
	}
	sb.WriteString("\n")

	total := 2 * (len(t.Headers) - 1)
	for _, w := range widths {
		total += w
	}
	sb.WriteString(styles.Muted.Render(strings.Repeat("─", total)))
	sb.WriteString("\n")

	for _, row := range t.Rows {
		for i, cell := range row {
			sb.WriteString(styles.Body.Render(pad(cell, widths[i], t.Aligns[i])))
			if i < len(row)-1 {
				sb.WriteString("  ")
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// pad fits a cell into its column width with the requested alignment.
func pad(s string, width int, align Align) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	fill := strings.Repeat(" ", gap)
	if align == AlignRight {
		return fill + s
	}
	return s + fill
}
