// Package demo declares the sample entities shipped with lazyadmin and wires
// them to the configured data source.
package demo

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rebeliceyang/lazyadmin/internal/audit"
	"github.com/rebeliceyang/lazyadmin/internal/config"
	"github.com/rebeliceyang/lazyadmin/internal/datasource"
	"github.com/rebeliceyang/lazyadmin/internal/db/connection"
	"github.com/rebeliceyang/lazyadmin/internal/entity"
	"github.com/rebeliceyang/lazyadmin/internal/field"
	"github.com/rebeliceyang/lazyadmin/internal/filter"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/query"
	"github.com/rebeliceyang/lazyadmin/internal/relation"
	"github.com/rs/zerolog"
)

//go:embed schema.sql
var schemaSQL string

type table struct {
	name        string
	columns     []string
	jsonColumns []string
	seed        func() []models.Item
}

const keyField = "id"

var tables = []table{
	{
		name:    "orgs",
		columns: []string{"id", "name", "plan", "seats"},
		seed:    func() []models.Item { return orgSeed },
	},
	{
		name:    "teams",
		columns: []string{"id", "name", "org_id"},
		seed:    func() []models.Item { return teamSeed },
	},
	{
		name:        "users",
		columns:     []string{"id", "name", "email", "age", "role", "org_id", "team_ids", "created_at"},
		jsonColumns: []string{"team_ids"},
		seed:        userSeed,
	},
	{
		name:    "audit",
		columns: audit.Columns,
	},
}

// Demo is the registry of sample entities plus the resources behind it
type Demo struct {
	Registry *entity.Registry
	closers  []func() error
}

// Close releases database handles
func (d *Demo) Close() error {
	var errs []error
	for _, c := range d.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Build opens the data source named by cfg.DataSource.Kind and registers the
// sample entities over it. SQL databases are migrated and seeded on first
// use.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Demo, error) {
	logger = logger.With().Str("component", "demo").Logger()
	ds := cfg.DataSource
	d := &Demo{}
	adapters := make(map[string]datasource.Adapter, len(tables))
	audited := true

	switch ds.Kind {
	case config.KindMemory, "":
		adapters = MemoryAdapters(datasource.WithLatency(ds.Latency))

	case config.KindHTTP:
		client := datasource.NewHTTPClient(datasource.HTTPConfig{
			BaseURL:  ds.HTTP.BaseURL,
			Timeout:  ds.HTTP.Timeout,
			RetryMax: ds.HTTP.RetryMax,
		})
		for _, t := range tables {
			adapters[t.name] = datasource.NewHTTP(client, ds.HTTP.BaseURL, t.name)
		}
		// the backend keeps its own audit log
		audited = false

	case config.KindSQLite:
		db, err := connection.OpenSQLite(ctx, ds.SQLite.Path)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, db.Close)
		if err := openSQL(ctx, db, adapters); err != nil {
			_ = d.Close()
			return nil, err
		}

	case config.KindPostgres:
		var passwords *connection.PasswordStore
		if ds.Postgres.UseKeyring {
			store, err := connection.NewPasswordStore(cfg.State.Dir)
			if err != nil {
				return nil, err
			}
			passwords = store
		}
		manager := connection.NewManager(passwords)
		pool, err := manager.Open(ctx, ds.Postgres)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, func() error {
			manager.Close()
			return nil
		})
		if err := openSQL(ctx, pool, adapters, datasource.WithDollarPlaceholders()); err != nil {
			_ = d.Close()
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown data source kind %q", ds.Kind)
	}

	var log *audit.Log
	if audited {
		sink, ok := adapters["audit"].(datasource.Creator)
		if !ok {
			return nil, fmt.Errorf("audit data source cannot store entries")
		}
		log = audit.NewLog(sink, logger)
	}

	registry, err := NewRegistry(adapters, cfg.General.PageSize, log,
		relation.WithConcurrency(ds.RelationConcurrency))
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	d.Registry = registry

	logger.Info().
		Str("kind", ds.Kind).
		Strs("entities", registry.Names()).
		Msg("Data source ready")
	return d, nil
}

// MemoryAdapters returns freshly seeded in-memory sources keyed by entity name
func MemoryAdapters(opts ...datasource.MemoryOption) map[string]datasource.Adapter {
	adapters := make(map[string]datasource.Adapter, len(tables))
	for _, t := range tables {
		var seed []models.Item
		if t.seed != nil {
			seed = t.seed()
		}
		adapters[t.name] = datasource.NewMemory(keyField, seed, opts...)
	}
	return adapters
}

func openSQL(ctx context.Context, db datasource.Querier, adapters map[string]datasource.Adapter, opts ...datasource.SQLOption) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate demo schema: %w", err)
		}
	}

	for _, t := range tables {
		tableOpts := append(slices.Clone(opts), datasource.WithJSONColumns(t.jsonColumns...))
		src := datasource.NewSQL(db, t.name, keyField, t.columns, tableOpts...)
		if t.seed != nil {
			if err := seed(ctx, src, t.seed()); err != nil {
				return fmt.Errorf("failed to seed %s: %w", t.name, err)
			}
		}
		adapters[t.name] = src
	}
	return nil
}

// seed inserts items into an empty table
func seed(ctx context.Context, src *datasource.SQL, items []models.Item) error {
	res, err := src.FetchPage(ctx, query.PageRequest{Page: 1, PageSize: 1})
	if err != nil {
		return err
	}
	if res.TotalCount > 0 {
		return nil
	}
	for _, item := range items {
		if _, err := src.CreateItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry declares the sample entities over adapters, keyed by entity
// name. Mutations are recorded in log when it is non-nil. opts configure the
// relation resolvers.
func NewRegistry(adapters map[string]datasource.Adapter, pageSize int, log *audit.Log, opts ...relation.Option) (*entity.Registry, error) {
	for _, t := range tables {
		if adapters[t.name] == nil {
			return nil, fmt.Errorf("no data source for %s", t.name)
		}
	}

	bind := func(name string, opts ...datasource.BindOption) datasource.Operations {
		return audit.Wrap(name, keyField, datasource.Bind(adapters[name], opts...), log)
	}

	orgOps := bind("orgs")
	teamOps := bind("teams")
	orgs := relation.New("orgs", keyField, orgOps, opts...)
	teams := relation.New("teams", keyField, teamOps, opts...)

	entities := []*entity.Entity{
		orgsEntity(orgs.Watch(orgOps), pageSize),
		teamsEntity(teams.Watch(teamOps), orgs, pageSize),
		usersEntity(bind("users"), orgs, teams, pageSize),
		auditEntity(datasource.Bind(adapters["audit"],
			datasource.WithoutCreate(), datasource.WithoutUpdate(), datasource.WithoutDelete())),
	}

	registry := entity.NewRegistry()
	for _, e := range entities {
		if err := registry.Register(e); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func byName() *models.Sort {
	return &models.Sort{FieldName: "name", Direction: models.SortAsc}
}

func orgsEntity(ops datasource.Operations, pageSize int) *entity.Entity {
	return &entity.Entity{
		Name:        "orgs",
		Title:       "Organizations",
		KeyField:    keyField,
		SearchField: "name",
		PageSize:    pageSize,
		Ops:         ops,
		Fields: []field.Field{
			field.Text{Key: "id", Title: "ID", Readonly: true},
			field.Text{Key: "name", Title: "Name"},
			field.Text{Key: "plan", Title: "Plan", Default: "free"},
			field.Number{Key: "seats", Title: "Seats"},
		},
		ColumnSets: map[string][]string{
			entity.DefaultColumnSet: {"name", "plan", "seats"},
		},
		Presets: []filter.Preset{
			{Name: "enterprise", Mode: filter.PresetReplace, Filters: []models.FilterValue{
				models.NewFilterValue("enterprise", "plan", "equals"),
			}},
			{Name: "large", Mode: filter.PresetReplace, Filters: []models.FilterValue{
				models.NewFilterValue("100", "seats", "gte"),
			}},
			{Name: "reset", Mode: filter.PresetClear},
		},
		Validators: filter.MustValidators(map[string]string{
			"seats":       `value matches "^[0-9]+$"`,
			"plan.equals": `value in ["free", "team", "enterprise"]`,
		}),
		DefaultSort: byName(),
	}
}

func teamsEntity(ops datasource.Operations, orgs *relation.Resolver, pageSize int) *entity.Entity {
	return &entity.Entity{
		Name:        "teams",
		Title:       "Teams",
		KeyField:    keyField,
		SearchField: "name",
		PageSize:    pageSize,
		Ops:         ops,
		Fields: []field.Field{
			field.Text{Key: "id", Title: "ID", Readonly: true},
			field.Text{Key: "name", Title: "Name"},
			field.ForeignKey{Key: "org_id", Title: "Organization", DisplayField: "name", Resolver: orgs},
		},
		ColumnSets: map[string][]string{
			entity.DefaultColumnSet: {"name", "org_id"},
		},
		DefaultSort: byName(),
	}
}

func usersEntity(ops datasource.Operations, orgs, teams *relation.Resolver, pageSize int) *entity.Entity {
	return &entity.Entity{
		Name:        "users",
		Title:       "Users",
		KeyField:    keyField,
		SearchField: "name",
		PageSize:    pageSize,
		Ops:         ops,
		Fields: []field.Field{
			field.Text{Key: "id", Title: "ID", Readonly: true},
			field.Text{Key: "name", Title: "Name"},
			field.Text{Key: "email", Title: "Email"},
			field.Number{Key: "age", Title: "Age"},
			field.Text{Key: "role", Title: "Role", Default: "viewer"},
			field.ForeignKey{Key: "org_id", Title: "Organization", DisplayField: "name", Resolver: orgs},
			field.ForeignKeyList{Key: "team_ids", Title: "Teams", DisplayField: "name", Resolver: teams},
			field.Text{Key: "created_at", Title: "Created", Readonly: true},
		},
		ColumnSets: map[string][]string{
			entity.DefaultColumnSet: {"name", "email", "role", "org_id"},
			"contact":               {"name", "email"},
			"membership":            {"name", "org_id", "team_ids"},
		},
		Presets: []filter.Preset{
			{Name: "admins", Mode: filter.PresetReplace, Filters: []models.FilterValue{
				models.NewFilterValue("admin", "role", "equals"),
			}},
			{Name: "adults", Mode: filter.PresetAppend, Filters: []models.FilterValue{
				models.NewFilterValue("18", "age", "gte"),
			}},
			{Name: "by org", Mode: filter.PresetReplace, Filters: []models.FilterValue{
				models.NewFilterValue("", "org_id", "equals"),
			}},
			{Name: "recent", Mode: filter.PresetReplace, Filters: []models.FilterValue{
				models.NewFilterValue("2024-06-01", "created_at", "gte"),
			}},
			{Name: "reset", Mode: filter.PresetClear},
		},
		Validators: filter.MustValidators(map[string]string{
			"age":          `value matches "^[0-9]+$" && int(value) < 150`,
			"created_at":   `value matches "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"`,
			"org_id.in":    `type(parsed) == "array"`,
			"team_ids.in":  `type(parsed) == "array"`,
			"role.equals":  `value in ["admin", "editor", "viewer"]`,
			"email.equals": `value contains "@"`,
		}),
		DefaultSort: byName(),
	}
}

func auditEntity(ops datasource.Operations) *entity.Entity {
	fields := make([]field.Field, len(audit.Columns))
	for i, name := range audit.Columns {
		fields[i] = field.Text{Key: name, Readonly: true}
	}
	return &entity.Entity{
		Name:        "audit",
		Title:       "Audit log",
		KeyField:    keyField,
		SearchField: "entity",
		PageSize:    50,
		Ops:         ops,
		Fields:      fields,
		ColumnSets: map[string][]string{
			entity.DefaultColumnSet: {"at", "entity", "action", "item_key"},
		},
		DefaultSort: &models.Sort{FieldName: "at", Direction: models.SortDesc},
	}
}
