package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rebeliceyang/lazyadmin/internal/filter"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/query"
)

func TestPageQuery_RoundTrip(t *testing.T) {
	req := query.PageRequest{
		Page:     3,
		PageSize: 20,
		Filters: filter.Compose(models.FilterSet{
			models.NewFilterValue("18", "age", "gte"),
		}, filter.TextSearch("name", "ada")),
		Sort:       &models.Sort{FieldName: "age", Direction: models.SortDesc},
		SearchText: "ada",
	}

	v := EncodePageQuery(req)
	if v.Get("filters") != `{"age":{"gte":18},"name":{"contains":"ada"}}` {
		t.Errorf("unexpected filters param %q", v.Get("filters"))
	}

	got, err := DecodePageQuery(v)
	if err != nil {
		t.Fatalf("DecodePageQuery failed: %v", err)
	}
	if got.Page != 3 || got.PageSize != 20 || got.SearchText != "ada" {
		t.Errorf("unexpected paging %+v", got)
	}
	if diff := cmp.Diff(req.Sort, got.Sort); diff != "" {
		t.Errorf("sort mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(req.Filters.Map(), got.Filters.Map()); diff != "" {
		t.Errorf("filters mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodePageQuery_Defaults(t *testing.T) {
	got, err := DecodePageQuery(url.Values{})
	if err != nil {
		t.Fatalf("DecodePageQuery failed: %v", err)
	}
	if got.Page != 1 || got.PageSize != 0 || got.Filters != nil || got.Sort != nil {
		t.Errorf("unexpected defaults %+v", got)
	}
	if _, err := DecodePageQuery(url.Values{"pageSize": {"-1"}}); err == nil {
		t.Error("expected error for negative page size")
	}
}

func TestHTTP_StatusErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/users/missing":
			http.Error(w, "no such user", http.StatusNotFound)
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	users := NewHTTP(NewHTTPClient(HTTPConfig{}), srv.URL, "users")
	ctx := context.Background()

	if _, err := users.FetchItem(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	calls.Store(0)
	_, err := users.FetchPage(ctx, query.PageRequest{Page: 1})
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusInternalServerError || httpErr.Body != "boom" {
		t.Errorf("unexpected error %+v", httpErr)
	}
	if calls.Load() != 1 {
		t.Errorf("expected no retries by default, got %d calls", calls.Load())
	}
}
