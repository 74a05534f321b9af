// Package format renders item values for tables, detail panes and exports.
package format

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Cell renders v on one line. Objects and lists become compact JSON, whole
// numbers drop their fraction and nil is empty.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.ReplaceAll(x, "\n", " ")
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []byte:
		return string(x)
	}
	if IsStructured(v) {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
	return fmt.Sprint(v)
}

// Pretty renders v over several lines when it is structured
func Pretty(v any) (string, error) {
	if !IsStructured(v) {
		return Cell(v), nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format: %w", err)
	}
	return string(b), nil
}

// IsStructured reports whether v is an object or a list
func IsStructured(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

// Truncate shortens s to at most width terminal cells, preferring to cut at a
// separator for JSON text
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	cut := runewidth.Truncate(s, width-1, "")
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		if i := strings.LastIndexAny(cut, ",{}[]"); i > len(cut)/2 {
			cut = cut[:i+1]
		}
	}
	return cut + "…"
}

// Pad fills s with spaces to exactly width cells, truncating first
func Pad(s string, width int) string {
	s = Truncate(s, width)
	return runewidth.FillRight(s, width)
}
