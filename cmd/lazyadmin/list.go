package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazyadmin/internal/demo"
	"github.com/rebeliceyang/lazyadmin/internal/entity"
	"github.com/rebeliceyang/lazyadmin/internal/export"
	"github.com/rebeliceyang/lazyadmin/internal/format"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/query"
	"github.com/rebeliceyang/lazyadmin/internal/statecache"
)

var listCmd = &cobra.Command{
	Use:   "list <entity|location>",
	Short: "Print one page of an entity",
	Long: `Fetches one page the way the TUI does and prints it, followed by the
location of the same view. The argument is an entity name or a location
copied from the TUI; flags are applied on top of it.

Filters are written as path=value, where the last path segment is the
operator:
  lazyadmin list users --filter age.gte=30 --filter role.equals=admin`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

var (
	listFilters []string
	listSearch  string
	listSort    string
	listPage    int
	listColumns string
	listFormat  string
	listOutput  string
)

func init() {
	listCmd.Flags().StringArrayVar(&listFilters, "filter", nil, "Filter as path=value (repeatable)")
	listCmd.Flags().StringVar(&listSearch, "search", "", "Text search")
	listCmd.Flags().StringVar(&listSort, "sort", "", "Sort as field or field:asc|desc")
	listCmd.Flags().IntVar(&listPage, "page", 1, "Page number")
	listCmd.Flags().StringVar(&listColumns, "columns", "", "Column set")
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "Output format: table|csv|json")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "", "Write rows to a file instead of stdout")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closer, err := cliLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := context.Background()
	d, err := demo.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	store, err := openListLocation(args[0])
	if err != nil {
		return err
	}
	name := strings.TrimPrefix(store.Path(), "/")
	e, ok := d.Registry.Get(name)
	if !ok {
		return fmt.Errorf("unknown entity %q (have %s)", name, strings.Join(d.Registry.Names(), ", "))
	}

	cache := statecache.New(store,
		statecache.WithValidator(e.Validator()),
		statecache.WithColumnSets(e.HasColumnSet))
	snap, err := applyListFlags(e, cache.Read())
	if err != nil {
		return err
	}
	if err := cache.Store(snap, statecache.Replace); err != nil {
		return err
	}

	sort := snap.Sort
	if sort == nil {
		sort = e.DefaultSort
	}
	desc := query.New().
		WithFilters(snap.Filters).
		WithSort(sort).
		WithSearch(snap.SearchText).
		WithPage(listPage)
	res, err := e.Ops.FetchPage(ctx, desc.Request(e.SearchField, e.Size()))
	if err != nil {
		return err
	}

	columns := e.Columns(snap.ColumnSet)
	if listOutput != "" {
		if err := export.ToFile(listOutput, columns, res.Data); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %d rows to %s\n", len(res.Data), listOutput)
	} else if err := writeRows(os.Stdout, listFormat, columns, res.Data); err != nil {
		return err
	}

	more := ""
	if res.NextPageAvailable {
		more = ", more available"
	}
	fmt.Fprintf(os.Stderr, "%d of %d rows%s\n%s\n", len(res.Data), res.TotalCount, more, store.Encode())
	return nil
}

func openListLocation(arg string) (*statecache.URLStore, error) {
	store := statecache.NewURLStore("/")
	location := arg
	if !strings.HasPrefix(location, "/") {
		location = "/" + location
	}
	if err := store.Open(location, statecache.Replace); err != nil {
		return nil, fmt.Errorf("invalid location %q: %w", arg, err)
	}
	return store, nil
}

// applyListFlags layers the command line over a snapshot
func applyListFlags(e *entity.Entity, snap statecache.Snapshot) (statecache.Snapshot, error) {
	for _, raw := range listFilters {
		path, value, ok := strings.Cut(raw, "=")
		if !ok || path == "" {
			return snap, fmt.Errorf("invalid filter %q, expected path=value", raw)
		}
		f := models.NewFilterValue(value, strings.Split(path, ".")...)
		f.Revalidate(e.Validator())
		if !f.Usable() {
			return snap, fmt.Errorf("invalid value %q for filter %s", value, path)
		}
		snap.Filters = snap.Filters.Set(f)
	}
	if listSearch != "" {
		snap.SearchText = listSearch
	}
	if listSort != "" {
		s, err := parseSort(listSort)
		if err != nil {
			return snap, err
		}
		if _, ok := e.Field(s.FieldName); !ok {
			return snap, fmt.Errorf("%s has no field %q", e.Name, s.FieldName)
		}
		snap.Sort = s
		if s.Equal(e.DefaultSort) {
			snap.Sort = nil
		}
	}
	if listColumns != "" {
		if !e.HasColumnSet(listColumns) {
			return snap, fmt.Errorf("%s has no column set %q (have %s)",
				e.Name, listColumns, strings.Join(e.ColumnSetNames(), ", "))
		}
		snap.ColumnSet = listColumns
	}
	return snap, nil
}

func parseSort(s string) (*models.Sort, error) {
	name, dir, ok := strings.Cut(s, ":")
	sort := &models.Sort{FieldName: name, Direction: models.SortAsc}
	if ok {
		sort.Direction = models.SortDirection(strings.ToLower(dir))
	}
	if name == "" || !sort.Direction.Valid() {
		return nil, fmt.Errorf("invalid sort %q, expected field or field:asc|desc", s)
	}
	return sort, nil
}

func writeRows(w io.Writer, kind string, columns []string, rows []models.Item) error {
	if kind != "table" {
		return export.Write(w, kind, columns, rows)
	}

	widths := make([]int, len(columns))
	cells := make([][]string, len(rows))
	for i, c := range columns {
		widths[i] = runewidth.StringWidth(c)
	}
	for r, row := range rows {
		cells[r] = make([]string, len(columns))
		for i, c := range columns {
			cell := format.Truncate(format.Cell(row[c]), 40)
			cells[r][i] = cell
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	line := func(values []string) string {
		padded := make([]string, len(values))
		for i, v := range values {
			padded[i] = format.Pad(v, widths[i])
		}
		return strings.TrimRight(strings.Join(padded, "  "), " ")
	}
	upper := make([]string, len(columns))
	for i, c := range columns {
		upper[i] = strings.ToUpper(c)
	}
	if _, err := fmt.Fprintln(w, line(upper)); err != nil {
		return err
	}
	for _, row := range cells {
		if _, err := fmt.Fprintln(w, line(row)); err != nil {
			return err
		}
	}
	return nil
}
