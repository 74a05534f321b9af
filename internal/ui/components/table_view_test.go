package components

import (
	"strings"
	"testing"

	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/ui/theme"
)

func TestTableViewColumnWidths(t *testing.T) {
	tv := NewTableView(theme.DefaultTheme())
	tv.MaxCellWidth = 10
	tv.SetData(
		[]string{"id", "name"},
		nil,
		[][]string{{"1", "日本語の名前です"}, {"2", "a very long name indeed"}},
		nil,
	)

	if tv.ColumnWidths[0] != minColumnWidth {
		t.Errorf("expected id width %d, got %d", minColumnWidth, tv.ColumnWidths[0])
	}
	if tv.ColumnWidths[1] != 10 {
		t.Errorf("expected name width capped at 10, got %d", tv.ColumnWidths[1])
	}
}

func TestTableViewMoveSelection(t *testing.T) {
	tv := NewTableView(theme.DefaultTheme())
	tv.Height = 6
	rows := make([][]string, 10)
	for i := range rows {
		rows[i] = []string{"x"}
	}
	tv.SetData([]string{"c"}, nil, rows, nil)
	_ = tv.View()

	if tv.VisibleRows != 3 {
		t.Fatalf("expected 3 visible rows, got %d", tv.VisibleRows)
	}

	tv.MoveSelection(-5)
	if tv.SelectedRow != 0 {
		t.Errorf("expected selection clamped to 0, got %d", tv.SelectedRow)
	}

	tv.MoveSelection(4)
	if tv.TopRow != 2 {
		t.Errorf("expected top row 2, got %d", tv.TopRow)
	}

	tv.PageDown()
	tv.PageDown()
	if tv.SelectedRow != 9 || !tv.AtBottom() {
		t.Errorf("expected cursor at last row, got %d", tv.SelectedRow)
	}

	tv.SetData([]string{"c"}, nil, rows[:2], nil)
	if tv.SelectedRow != 1 {
		t.Errorf("expected selection kept in range, got %d", tv.SelectedRow)
	}
}

func TestTableViewMarksAndSort(t *testing.T) {
	tv := NewTableView(theme.DefaultTheme())
	tv.Height = 10
	tv.Width = 80
	tv.Sort = &models.Sort{FieldName: "name", Direction: models.SortDesc}
	tv.SetData(
		[]string{"name"},
		[]string{"Name"},
		[][]string{{"Ada"}, {"Grace"}},
		[]bool{false, true},
	)

	out := tv.View()
	if !strings.Contains(out, "Name ▼") {
		t.Errorf("expected descending sort marker in header, got:\n%s", out)
	}
	if !strings.Contains(out, "● Grace") {
		t.Errorf("expected marked row, got:\n%s", out)
	}
}
