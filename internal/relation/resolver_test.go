package relation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rebeliceyang/lazyadmin/internal/datasource"
	"github.com/rebeliceyang/lazyadmin/internal/models"
)

// countingSource hides the batch capability of the memory source and counts
// single fetches
type countingSource struct {
	*datasource.Memory
	fetches atomic.Int32
}

func (c *countingSource) FetchItem(ctx context.Context, key models.Key) (models.Item, error) {
	c.fetches.Add(1)
	return c.Memory.FetchItem(ctx, key)
}

type singleOnly struct {
	datasource.Adapter
}

func orgs(opts ...datasource.MemoryOption) *datasource.Memory {
	return datasource.NewMemory("id", []models.Item{
		{"id": "o1", "name": "Acme"},
		{"id": "o2", "name": "Globex"},
	}, opts...)
}

func TestResolve_FullReturnedAsIs(t *testing.T) {
	src := &countingSource{Memory: orgs()}
	r := New("orgs", "id", datasource.Bind(singleOnly{src}))

	ref := models.Full("o1", models.Item{"id": "o1", "name": "cached"})
	got, err := r.Resolve(context.Background(), ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Item["name"] != "cached" {
		t.Errorf("expected full ref untouched, got %v", got.Item)
	}
	if n := src.fetches.Load(); n != 0 {
		t.Errorf("expected no fetch, got %d", n)
	}
}

func TestResolve_KeyOnlyFetchedOnceAndCached(t *testing.T) {
	src := &countingSource{Memory: orgs()}
	r := New("orgs", "id", datasource.Bind(singleOnly{src}))

	for i := 0; i < 3; i++ {
		got, err := r.Resolve(context.Background(), models.KeyOnly("o2"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Resolved() || got.Item["name"] != "Globex" {
			t.Fatalf("expected resolved Globex, got %+v", got)
		}
	}
	if n := src.fetches.Load(); n != 1 {
		t.Errorf("expected 1 fetch, got %d", n)
	}

	r.Invalidate("o2")
	if _, err := r.Resolve(context.Background(), models.KeyOnly("o2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := src.fetches.Load(); n != 2 {
		t.Errorf("expected refetch after invalidate, got %d fetches", n)
	}
}

func TestResolve_ConcurrentCallsDeduplicated(t *testing.T) {
	src := &countingSource{Memory: orgs(datasource.WithLatency(50 * time.Millisecond))}
	r := New("orgs", "id", datasource.Bind(singleOnly{src}))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Resolve(context.Background(), models.KeyOnly("o1")); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := src.fetches.Load(); n != 1 {
		t.Errorf("expected 1 fetch, got %d", n)
	}
}

func TestResolve_MissingKeyIsRelationError(t *testing.T) {
	r := New("orgs", "id", datasource.Bind(orgs()))

	ref, err := r.Resolve(context.Background(), models.KeyOnly("gone"))
	var relErr *Error
	if !errors.As(err, &relErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if relErr.Key != "gone" || !errors.Is(err, datasource.ErrNotFound) {
		t.Errorf("unexpected error %v", err)
	}
	if ref.Kind != models.RefKeyOnly {
		t.Errorf("expected original ref back, got %v", ref.Kind)
	}
}

func TestResolveMany_PerReferenceFailures(t *testing.T) {
	tests := []struct {
		name string
		ops  datasource.Operations
	}{
		{"batched", datasource.Bind(orgs())},
		{"fallback", datasource.Bind(singleOnly{orgs()})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.name == "batched" && tt.ops.Batch == nil {
				t.Fatal("expected memory source to batch")
			}
			r := New("orgs", "id", tt.ops, WithConcurrency(2))

			results := r.ResolveMany(context.Background(), []models.RelationRef{
				models.KeyOnly("o1"),
				models.KeyOnly("missing"),
				models.Draft(models.Item{"name": "New"}),
				models.KeyOnly("o2"),
			})

			if len(results) != 4 {
				t.Fatalf("expected 4 results, got %d", len(results))
			}
			if results[0].Err != nil || results[0].Ref.Item["name"] != "Acme" {
				t.Errorf("unexpected result 0: %+v", results[0])
			}
			if !errors.Is(results[1].Err, datasource.ErrNotFound) {
				t.Errorf("expected not found for result 1, got %v", results[1].Err)
			}
			if results[2].Err != nil || results[2].Ref.Kind != models.RefDraft {
				t.Errorf("expected draft untouched, got %+v", results[2])
			}
			if results[3].Err != nil || results[3].Ref.Item["name"] != "Globex" {
				t.Errorf("unexpected result 3: %+v", results[3])
			}
		})
	}
}

func TestCreateAndMaterialize(t *testing.T) {
	src := orgs()
	r := New("orgs", "id", datasource.Bind(src))

	refs, err := r.Materialize(context.Background(), []models.RelationRef{
		models.KeyOnly("o1"),
		models.Draft(models.Item{"name": "Initech"}),
	})
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if refs[0].Kind != models.RefKeyOnly {
		t.Errorf("expected key-only ref untouched, got %v", refs[0].Kind)
	}
	created := refs[1]
	if created.Kind != models.RefFull || created.Key() == "" {
		t.Fatalf("expected created full ref with key, got %+v", created)
	}
	if src.Len() != 3 {
		t.Errorf("expected 3 orgs, got %d", src.Len())
	}
	if _, err := src.FetchItem(context.Background(), created.Key()); err != nil {
		t.Errorf("expected created org to be fetchable: %v", err)
	}
}

func TestCreate_Unsupported(t *testing.T) {
	r := New("orgs", "id", datasource.Bind(orgs(), datasource.WithoutCreate()))
	if r.CanCreate() {
		t.Error("expected create to be unavailable")
	}
	_, err := r.Create(context.Background(), models.Item{"name": "x"})
	if !errors.Is(err, datasource.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestWatch_MutationsInvalidate(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{Memory: orgs()}
	r := New("orgs", "id", datasource.Bind(src))
	ops := r.Watch(datasource.Bind(src))

	if _, err := r.Resolve(ctx, models.KeyOnly("o2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ops.UpdateItem(ctx, "o2", models.Item{"name": "Globex Corp"}); err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	got, err := r.Resolve(ctx, models.KeyOnly("o2"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Item["name"] != "Globex Corp" {
		t.Errorf("expected renamed item after update, got %v", got.Item)
	}

	if err := ops.DeleteItem(ctx, "o2"); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}
	_, err = r.Resolve(ctx, models.KeyOnly("o2"))
	if !errors.Is(err, datasource.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if n := src.fetches.Load(); n != 3 {
		t.Errorf("expected a fetch per resolution after each mutation, got %d", n)
	}
}

func TestReset_DropsCache(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{Memory: orgs()}
	r := New("orgs", "id", datasource.Bind(singleOnly{src}))

	for _, key := range []models.Key{"o1", "o2"} {
		if _, err := r.Resolve(ctx, models.KeyOnly(key)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	r.Reset()
	if _, err := r.Resolve(ctx, models.KeyOnly("o1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := src.fetches.Load(); n != 3 {
		t.Errorf("expected refetch after reset, got %d fetches", n)
	}
}
