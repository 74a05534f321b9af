package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rebeliceyang/lazyadmin/internal/models"
)

func TestBuilder_BuildWhere(t *testing.T) {
	b := NewBuilder("name", "age", "orgId", "deletedAt")

	tests := []struct {
		name     string
		set      models.FilterSet
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "equality",
			set:      models.FilterSet{models.NewFilterValue("o1", "orgId")},
			wantSQL:  "(orgId = ?)",
			wantArgs: []any{"o1"},
		},
		{
			name: "range on one column",
			set: models.FilterSet{
				models.NewFilterValue("30", "age", "gte"),
				models.NewFilterValue("40", "age", "lte"),
			},
			wantSQL:  "(age >= ? AND age <= ?)",
			wantArgs: []any{float64(30), float64(40)},
		},
		{
			name:     "contains",
			set:      models.FilterSet{models.NewFilterValue("Smith", "name", "contains")},
			wantSQL:  "(LOWER(name) LIKE ?)",
			wantArgs: []any{"%smith%"},
		},
		{
			name:     "is null",
			set:      models.FilterSet{models.NewFilterValue("true", "deletedAt", "isNull")},
			wantSQL:  "(deletedAt IS NULL)",
			wantArgs: nil,
		},
		{
			name:     "in list",
			set:      models.FilterSet{models.NewFilterValue(`["o1","o2"]`, "orgId", "in")},
			wantSQL:  "(orgId IN (?,?))",
			wantArgs: []any{"o1", "o2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, err := b.BuildWhere(Compose(tt.set, Search{}))
			if err != nil {
				t.Fatalf("BuildWhere failed: %v", err)
			}
			sql, args, err := where.ToSql()
			if err != nil {
				t.Fatalf("ToSql failed: %v", err)
			}
			if sql != tt.wantSQL {
				t.Errorf("expected SQL %q, got %q", tt.wantSQL, sql)
			}
			if len(tt.wantArgs) == 0 && len(args) == 0 {
				return
			}
			if diff := cmp.Diff(tt.wantArgs, args); diff != "" {
				t.Errorf("unexpected args (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuilder_EmptyTree(t *testing.T) {
	where, err := NewBuilder("name").BuildWhere(NewTree())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if where != nil {
		t.Errorf("expected nil predicate, got %v", where)
	}
}

func TestBuilder_RejectsUnknownColumn(t *testing.T) {
	set := models.FilterSet{models.NewFilterValue("1", "password")}
	if _, err := NewBuilder("name").BuildWhere(Compose(set, Search{})); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestBuilder_RejectsUnknownOperator(t *testing.T) {
	set := models.FilterSet{models.NewFilterValue("1", "age", "between")}
	if _, err := NewBuilder("age").BuildWhere(Compose(set, Search{})); err == nil {
		t.Error("expected error for unknown operator")
	}
}
