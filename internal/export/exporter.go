package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rebeliceyang/lazyadmin/internal/format"
	"github.com/rebeliceyang/lazyadmin/internal/models"
)

// Supported formats
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Write renders rows, restricted to columns, in the named format
func Write(w io.Writer, kind string, columns []string, rows []models.Item) error {
	switch strings.ToLower(kind) {
	case FormatCSV:
		return WriteCSV(w, columns, rows)
	case FormatJSON:
		return WriteJSON(w, columns, rows)
	default:
		return fmt.Errorf("unknown export format %q", kind)
	}
}

// WriteCSV writes a header of columns followed by one record per row.
// Structured values are written as compact JSON.
func WriteCSV(w io.Writer, columns []string, rows []models.Item) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = format.Cell(row[col])
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteJSON writes rows as an indented JSON array of objects
func WriteJSON(w io.Writer, columns []string, rows []models.Item) error {
	out := make([]models.Item, len(rows))
	for i, row := range rows {
		projected := make(models.Item, len(columns))
		for _, col := range columns {
			projected[col] = row[col]
		}
		out[i] = projected
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to marshal rows to JSON: %w", err)
	}
	return nil
}

// ToFile writes rows to path, picking the format from its extension
func ToFile(path string, columns []string, rows []models.Item) error {
	kind := strings.TrimPrefix(filepath.Ext(path), ".")

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := Write(file, kind, columns, rows); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return err
	}
	return file.Close()
}
