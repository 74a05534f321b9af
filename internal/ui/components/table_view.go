package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazyadmin/internal/format"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/ui/theme"
)

const (
	minColumnWidth = 4
	markerWidth    = 2
)

// TableView displays the rows of a list with virtual scrolling
type TableView struct {
	Columns      []string
	Headers      []string
	Rows         [][]string
	Marked       []bool
	Width        int
	Height       int
	MaxCellWidth int
	Sort         *models.Sort
	Status       string
	Empty        string
	Theme        theme.Theme

	// Virtual scrolling state
	TopRow      int
	VisibleRows int
	SelectedRow int

	ColumnWidths []int
}

// NewTableView creates a new table view
func NewTableView(th theme.Theme) *TableView {
	return &TableView{
		MaxCellWidth: 40,
		Empty:        "No rows",
		Theme:        th,
	}
}

// SetData replaces the table contents. Headers default to the column names.
// The cursor is kept where it was when still in range.
func (tv *TableView) SetData(columns, headers []string, rows [][]string, marked []bool) {
	if len(headers) != len(columns) {
		headers = columns
	}
	tv.Columns = columns
	tv.Headers = headers
	tv.Rows = rows
	tv.Marked = marked
	tv.calculateColumnWidths()
	tv.clamp()
}

// calculateColumnWidths sizes each column to its widest cell, bounded by
// MaxCellWidth
func (tv *TableView) calculateColumnWidths() {
	tv.ColumnWidths = make([]int, len(tv.Columns))
	for i, h := range tv.Headers {
		tv.ColumnWidths[i] = runewidth.StringWidth(h) + 2
	}
	for _, row := range tv.Rows {
		for i, cell := range row {
			if i >= len(tv.ColumnWidths) {
				break
			}
			if w := runewidth.StringWidth(cell); w > tv.ColumnWidths[i] {
				tv.ColumnWidths[i] = w
			}
		}
	}
	for i := range tv.ColumnWidths {
		if tv.MaxCellWidth > 0 && tv.ColumnWidths[i] > tv.MaxCellWidth {
			tv.ColumnWidths[i] = tv.MaxCellWidth
		}
		if tv.ColumnWidths[i] < minColumnWidth {
			tv.ColumnWidths[i] = minColumnWidth
		}
	}
}

func (tv *TableView) clamp() {
	if tv.SelectedRow >= len(tv.Rows) {
		tv.SelectedRow = len(tv.Rows) - 1
	}
	if tv.SelectedRow < 0 {
		tv.SelectedRow = 0
	}
	if tv.TopRow > tv.SelectedRow {
		tv.TopRow = tv.SelectedRow
	}
}

// View renders the table
func (tv *TableView) View() string {
	if len(tv.Columns) == 0 {
		return lipgloss.NewStyle().Foreground(tv.Theme.Muted).Render(tv.Empty)
	}

	var b strings.Builder
	b.WriteString(tv.renderHeader())
	b.WriteString("\n")
	b.WriteString(tv.renderSeparator())
	b.WriteString("\n")

	// Header + separator + status
	tv.VisibleRows = tv.Height - 3
	if tv.VisibleRows < 1 {
		tv.VisibleRows = 1
	}

	if len(tv.Rows) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(tv.Theme.Muted).Italic(true).Render(" " + tv.Empty))
	}
	end := tv.TopRow + tv.VisibleRows
	if end > len(tv.Rows) {
		end = len(tv.Rows)
	}
	for i := tv.TopRow; i < end; i++ {
		b.WriteString(tv.renderRow(i))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Foreground(tv.Theme.Muted).
		Italic(true).
		Render(format.Truncate(tv.Status, tv.Width)))

	return lipgloss.NewStyle().MaxWidth(tv.Width).Render(b.String())
}

func (tv *TableView) renderHeader() string {
	parts := make([]string, len(tv.Headers))
	for i, h := range tv.Headers {
		if tv.Sort != nil && tv.Sort.FieldName == tv.Columns[i] {
			if tv.Sort.Direction == models.SortDesc {
				h += " ▼"
			} else {
				h += " ▲"
			}
		}
		parts[i] = format.Pad(h, tv.ColumnWidths[i])
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(tv.Theme.TableHeader).
		Render(strings.Repeat(" ", markerWidth) + strings.Join(parts, " │ "))
}

func (tv *TableView) renderSeparator() string {
	parts := make([]string, len(tv.ColumnWidths))
	for i, w := range tv.ColumnWidths {
		parts[i] = strings.Repeat("─", w)
	}
	return lipgloss.NewStyle().
		Foreground(tv.Theme.Border).
		Render(strings.Repeat("─", markerWidth) + strings.Join(parts, "─┼─"))
}

func (tv *TableView) renderRow(i int) string {
	row := tv.Rows[i]
	parts := make([]string, len(tv.ColumnWidths))
	for c := range tv.ColumnWidths {
		cell := ""
		if c < len(row) {
			cell = row[c]
		}
		parts[c] = format.Pad(cell, tv.ColumnWidths[c])
	}

	marker := "  "
	marked := i < len(tv.Marked) && tv.Marked[i]
	if marked {
		marker = "● "
	}
	line := marker + strings.Join(parts, " │ ")

	style := lipgloss.NewStyle()
	if marked {
		style = style.Foreground(tv.Theme.TableRowMarked)
	}
	if i == tv.SelectedRow {
		style = style.Background(tv.Theme.TableRowSelected).Bold(true)
	}
	return style.Render(line)
}

// MoveSelection moves the selection up or down
func (tv *TableView) MoveSelection(delta int) {
	tv.SelectedRow += delta
	tv.clamp()

	if tv.SelectedRow < tv.TopRow {
		tv.TopRow = tv.SelectedRow
	}
	if tv.VisibleRows > 0 && tv.SelectedRow >= tv.TopRow+tv.VisibleRows {
		tv.TopRow = tv.SelectedRow - tv.VisibleRows + 1
	}
}

func (tv *TableView) PageUp() {
	tv.MoveSelection(-tv.VisibleRows)
}

func (tv *TableView) PageDown() {
	tv.MoveSelection(tv.VisibleRows)
}

// AtBottom reports whether the cursor is on the last loaded row
func (tv *TableView) AtBottom() bool {
	return len(tv.Rows) > 0 && tv.SelectedRow == len(tv.Rows)-1
}
