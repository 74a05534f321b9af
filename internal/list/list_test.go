package list

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/rebeliceyang/lazyadmin/internal/datasource"
	"github.com/rebeliceyang/lazyadmin/internal/entity"
	"github.com/rebeliceyang/lazyadmin/internal/field"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/query"
	"github.com/rs/zerolog"
)

func people() []models.Item {
	return []models.Item{
		{"id": "1", "name": "Ann", "age": float64(31)},
		{"id": "2", "name": "Bob", "age": float64(45)},
		{"id": "3", "name": "Anna", "age": float64(22)},
		{"id": "4", "name": "Bert", "age": float64(67)},
		{"id": "5", "name": "Cleo", "age": float64(38)},
	}
}

func newEntity(ops datasource.Operations, pageSize int) *entity.Entity {
	return &entity.Entity{
		Name:        "people",
		KeyField:    "id",
		SearchField: "name",
		PageSize:    pageSize,
		Ops:         ops,
		Fields:      []field.Field{field.Text{Key: "id"}, field.Text{Key: "name"}, field.Number{Key: "age"}},
	}
}

func names(rows []models.Item) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = fmt.Sprint(r["name"])
	}
	return out
}

func exec(t *testing.T, cmd tea.Cmd) PageLoadedMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}
	msg, ok := cmd().(PageLoadedMsg)
	if !ok {
		t.Fatal("expected PageLoadedMsg")
	}
	return msg
}

// flakySource fails the first n page fetches
type flakySource struct {
	datasource.Adapter
	failures atomic.Int32
}

func (f *flakySource) FetchPage(ctx context.Context, req query.PageRequest) (models.FetchResult, error) {
	if f.failures.Add(-1) >= 0 {
		return models.FetchResult{}, &datasource.HTTPError{StatusCode: 503, Body: "unavailable"}
	}
	return f.Adapter.FetchPage(ctx, req)
}

// plainSource exposes fetching and single deletes only
type plainSource struct {
	datasource.Adapter
	datasource.Deleter
}

func TestList_StaleResultDiscarded(t *testing.T) {
	l := New(newEntity(datasource.Bind(datasource.NewMemory("id", people())), 10), zerolog.Nop())

	r1 := l.SetSearch("ann")
	r2 := l.SetSearch("bo")

	msg2 := exec(t, r2)
	msg1 := exec(t, r1)

	if !l.Apply(msg2) {
		t.Fatal("expected latest result to be applied")
	}
	if l.Apply(msg1) {
		t.Error("expected stale result to be discarded")
	}
	if diff := cmp.Diff([]string{"Bob"}, names(l.Rows())); diff != "" {
		t.Errorf("unexpected rows (-want +got):\n%s", diff)
	}
	if l.Status() != StatusComplete {
		t.Errorf("expected complete, got %s", l.Status())
	}
}

func TestList_NewQueryCancelsInFlight(t *testing.T) {
	src := datasource.NewMemory("id", people(), datasource.WithLatency(5*time.Second))
	l := New(newEntity(datasource.Bind(src), 10), zerolog.Nop())

	r1 := l.Load()
	done := make(chan PageLoadedMsg, 1)
	go func() { done <- r1().(PageLoadedMsg) }()

	_ = l.SetSearch("ann")

	select {
	case msg := <-done:
		if !errors.Is(msg.Err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", msg.Err)
		}
		if l.Apply(msg) {
			t.Error("expected cancelled result to be discarded")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected in-flight fetch to be cancelled")
	}
	if l.Status() != StatusLoading {
		t.Errorf("expected still loading the new query, got %s", l.Status())
	}
}

func TestList_ErrorKeptWithoutAutomaticRetry(t *testing.T) {
	src := &flakySource{Adapter: datasource.NewMemory("id", people())}
	src.failures.Store(1)
	l := New(newEntity(datasource.Bind(src), 10), zerolog.Nop())

	if !l.Apply(exec(t, l.Load())) {
		t.Fatal("expected result to be applied")
	}
	if l.Status() != StatusError {
		t.Fatalf("expected error status, got %s", l.Status())
	}
	var httpErr *datasource.HTTPError
	if !errors.As(l.Err(), &httpErr) || httpErr.StatusCode != 503 {
		t.Errorf("expected 503 HTTPError, got %v", l.Err())
	}
	if l.NextPage() != nil {
		t.Error("expected no continuation from an error")
	}

	l.Apply(exec(t, l.Retry()))
	if l.Status() != StatusComplete || len(l.Rows()) != 5 {
		t.Errorf("expected retry to succeed, got %s with %d rows", l.Status(), len(l.Rows()))
	}
	if l.Retry() != nil {
		t.Error("expected retry to be a no-op once complete")
	}
}

func TestList_ContinuationAppends(t *testing.T) {
	l := New(newEntity(datasource.Bind(datasource.NewMemory("id", people())), 2), zerolog.Nop())

	cmd := l.Load()
	if l.NextPage() != nil {
		t.Error("expected no continuation while loading")
	}
	l.Apply(exec(t, cmd))
	if !l.NextPageAvailable() || l.TotalCount() != 5 {
		t.Fatalf("expected more data of 5 total, got next=%v total=%d", l.NextPageAvailable(), l.TotalCount())
	}

	l.Apply(exec(t, l.NextPage()))
	l.Apply(exec(t, l.NextPage()))

	if diff := cmp.Diff([]string{"Ann", "Bob", "Anna", "Bert", "Cleo"}, names(l.Rows())); diff != "" {
		t.Errorf("unexpected rows (-want +got):\n%s", diff)
	}
	if l.NextPageAvailable() || l.NextPage() != nil {
		t.Error("expected the end of the result set")
	}
	if l.Descriptor().Page != 3 {
		t.Errorf("expected page 3, got %d", l.Descriptor().Page)
	}
}

func TestList_PageJumpReplacesRows(t *testing.T) {
	l := New(newEntity(datasource.Bind(datasource.NewMemory("id", people())), 2), zerolog.Nop())
	l.Apply(exec(t, l.Load()))

	cmd := l.SetDescriptor(l.Descriptor().WithPage(3))
	if len(l.Rows()) != 0 {
		t.Errorf("expected rows cleared for a page jump, got %d", len(l.Rows()))
	}
	l.Apply(exec(t, cmd))
	if diff := cmp.Diff([]string{"Cleo"}, names(l.Rows())); diff != "" {
		t.Errorf("unexpected rows (-want +got):\n%s", diff)
	}

	l.Apply(exec(t, l.SetDescriptor(l.Descriptor().WithPage(2))))
	if diff := cmp.Diff([]string{"Anna", "Bert"}, names(l.Rows())); diff != "" {
		t.Errorf("unexpected rows after jumping back (-want +got):\n%s", diff)
	}
}

func TestList_FilterChangeResetsPageAndRows(t *testing.T) {
	l := New(newEntity(datasource.Bind(datasource.NewMemory("id", people())), 2), zerolog.Nop())
	l.Apply(exec(t, l.Load()))
	l.Apply(exec(t, l.NextPage()))

	cmd := l.SetFilters(models.FilterSet{models.NewFilterValue("40", "age", "gte")})
	if l.Descriptor().Page != 1 {
		t.Errorf("expected page 1, got %d", l.Descriptor().Page)
	}
	if len(l.Rows()) != 0 {
		t.Errorf("expected rows cleared, got %d", len(l.Rows()))
	}
	l.Apply(exec(t, cmd))
	if diff := cmp.Diff([]string{"Bob", "Bert"}, names(l.Rows())); diff != "" {
		t.Errorf("unexpected rows (-want +got):\n%s", diff)
	}
}

func TestList_SameQueryIsNoop(t *testing.T) {
	l := New(newEntity(datasource.Bind(datasource.NewMemory("id", people())), 10), zerolog.Nop())
	l.Apply(exec(t, l.SetSearch("ann")))

	if cmd := l.SetSearch("ann"); cmd != nil {
		t.Error("expected no refetch for an identical query")
	}
	incomplete := models.NewFilterValue("", "age", "gte")
	if cmd := l.SetFilters(models.FilterSet{incomplete}); cmd != nil {
		t.Error("expected no refetch for a filter that does not reach the query")
	}
	if cmd := l.SetFilters(models.FilterSet{models.NewFilterValue("30", "age", "gte")}); cmd == nil {
		t.Error("expected refetch when the effective filters change")
	}
}

func TestList_SortOrdersRows(t *testing.T) {
	l := New(newEntity(datasource.Bind(datasource.NewMemory("id", people())), 10), zerolog.Nop())
	l.Apply(exec(t, l.SetSort(&models.Sort{FieldName: "age", Direction: models.SortDesc})))

	if diff := cmp.Diff([]string{"Bert", "Bob", "Cleo", "Ann", "Anna"}, names(l.Rows())); diff != "" {
		t.Errorf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestList_CancelDiscardsResult(t *testing.T) {
	l := New(newEntity(datasource.Bind(datasource.NewMemory("id", people())), 10), zerolog.Nop())
	cmd := l.Load()
	l.Cancel()

	if l.Apply(exec(t, cmd)) {
		t.Error("expected result after Cancel to be discarded")
	}
	if l.Status() != StatusIdle {
		t.Errorf("expected idle, got %s", l.Status())
	}
}
