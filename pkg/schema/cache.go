package schema

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Querier is the slice of the connection layer the cache needs: run a
// parameterized catalog query and fetch every row as a column->value map.
type Querier interface {
	QueryAll(ctx context.Context, sqlText string, params map[string]any) ([]map[string]any, error)
}

const (
	columnsQuery = `SELECT table_name, column_name, data_type, extra FROM information_schema.columns WHERE table_schema = :table_schema ORDER BY table_name, ordinal_position`

	triggersQuery = `SELECT event_object_table, trigger_name FROM information_schema.triggers WHERE trigger_schema = :trigger_schema`

	primaryKeyQuery = `SELECT column_name FROM information_schema.key_column_usage WHERE table_schema = :table_schema AND table_name = :table_name AND constraint_name = 'PRIMARY' ORDER BY ordinal_position`
)

// Cache is a snapshot of one database's table, column, generated-column and
// trigger metadata. It loads lazily on the first validation call and is
// reloaded only on an explicit Load(ctx, true); after DDL performed through
// another engine instance, callers must force a reload to see the change.
//
// A Cache belongs to exactly one engine instance and is not safe for
// concurrent use.
type Cache struct {
	db        Querier
	database  string
	log       *slog.Logger
	loaded    bool
	tables    map[string]map[string]string // table -> column -> declared type
	generated map[string][]string          // table -> generated columns, catalog order
	triggers  map[string][]string          // table -> trigger names
}

// NewCache creates an empty cache for the named database. The logger may be
// nil for silent operation.
func NewCache(db Querier, database string, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Cache{db: db, database: database, log: log}
}

// Load fetches the table/column/type, generated-column and trigger metadata
// for the configured database. It is a no-op when the snapshot is already
// loaded and force is false. A failed catalog query returns a *LoadError.
func (c *Cache) Load(ctx context.Context, force bool) error {
	if c.loaded && !force {
		return nil
	}

	cols, err := c.db.QueryAll(ctx, columnsQuery, map[string]any{"table_schema": c.database})
	if err != nil {
		return &LoadError{Err: err}
	}

	tables := make(map[string]map[string]string)
	generated := make(map[string][]string)
	for _, row := range cols {
		table := asString(row["table_name"])
		column := asString(row["column_name"])
		if tables[table] == nil {
			tables[table] = make(map[string]string)
		}
		tables[table][column] = asString(row["data_type"])
		if strings.Contains(strings.ToUpper(asString(row["extra"])), "GENERATED") {
			generated[table] = append(generated[table], column)
		}
	}

	trigs, err := c.db.QueryAll(ctx, triggersQuery, map[string]any{"trigger_schema": c.database})
	if err != nil {
		return &LoadError{Err: err}
	}
	triggers := make(map[string][]string)
	for _, row := range trigs {
		table := asString(row["event_object_table"])
		triggers[table] = append(triggers[table], asString(row["trigger_name"]))
	}

	c.tables = tables
	c.generated = generated
	c.triggers = triggers
	c.loaded = true
	c.log.Debug("schema snapshot loaded", "database", c.database, "tables", len(tables))
	return nil
}

// ensureLoaded performs the lazy first load. Validation predicates answer
// false rather than surfacing a load failure; the error is logged and the
// next call retries.
func (c *Cache) ensureLoaded() bool {
	if c.loaded {
		return true
	}
	if err := c.Load(context.Background(), false); err != nil {
		c.log.Error("lazy schema load failed", "error", err)
		return false
	}
	return true
}

// IsValidTable reports whether table names a table in the loaded snapshot.
// The name is normalized through ValidateIdentifier first; lookup is a
// case-sensitive exact match. Unknown tables answer false, not an error.
func (c *Cache) IsValidTable(table string) bool {
	name, err := ValidateIdentifier(table)
	if err != nil {
		return false
	}
	if !c.ensureLoaded() {
		return false
	}
	_, ok := c.tables[name]
	return ok
}

// IsValidColumn reports whether column exists in the named table.
func (c *Cache) IsValidColumn(table, column string) bool {
	tname, err := ValidateIdentifier(table)
	if err != nil {
		return false
	}
	cname, err := ValidateIdentifier(column)
	if err != nil {
		return false
	}
	if !c.ensureLoaded() {
		return false
	}
	cols, ok := c.tables[tname]
	if !ok {
		return false
	}
	_, ok = cols[cname]
	return ok
}

// IsGeneratedColumn reports whether the catalog marks table.column as a
// generated (computed) column. Such columns pass IsValidColumn but must be
// excluded from INSERT and UPDATE value lists.
func (c *Cache) IsGeneratedColumn(table, column string) bool {
	tname, err := ValidateIdentifier(table)
	if err != nil {
		return false
	}
	cname, err := ValidateIdentifier(column)
	if err != nil {
		return false
	}
	if !c.ensureLoaded() {
		return false
	}
	for _, g := range c.generated[tname] {
		if g == cname {
			return true
		}
	}
	return false
}

// Triggers returns the trigger names recorded for the table, or nil.
func (c *Cache) Triggers(table string) []string {
	name, err := ValidateIdentifier(table)
	if err != nil || !c.ensureLoaded() {
		return nil
	}
	return c.triggers[name]
}

// Tables returns the sorted table names in the snapshot.
func (c *Cache) Tables() []string {
	if !c.ensureLoaded() {
		return nil
	}
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Columns returns the sorted column names of the table, or nil when the
// table is not in the snapshot.
func (c *Cache) Columns(table string) []string {
	name, err := ValidateIdentifier(table)
	if err != nil || !c.ensureLoaded() {
		return nil
	}
	cols, ok := c.tables[name]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(cols))
	for col := range cols {
		names = append(names, col)
	}
	sort.Strings(names)
	return names
}

// ColumnType returns the declared catalog type of table.column, or "".
func (c *Cache) ColumnType(table, column string) string {
	if !c.IsValidColumn(table, column) {
		return ""
	}
	return c.tables[strings.TrimSpace(table)][strings.TrimSpace(column)]
}

// PrimaryKey returns the table's primary key column name, querying the live
// catalog rather than the snapshot. It returns *InvalidTableError when the
// table is not schema-valid, and "" without error when the table has no
// primary key.
func (c *Cache) PrimaryKey(ctx context.Context, table string) (string, error) {
	if !c.IsValidTable(table) {
		return "", &InvalidTableError{Table: table}
	}
	name := strings.TrimSpace(table)
	rows, err := c.db.QueryAll(ctx, primaryKeyQuery, map[string]any{
		"table_schema": c.database,
		"table_name":   name,
	})
	if err != nil {
		return "", fmt.Errorf("failed to query primary key for %q: %w", name, err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	return asString(rows[0]["column_name"]), nil
}

// asString converts a catalog value to string. MySQL drivers hand
// information_schema columns back as either string or []byte.
func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}
