// Package engine is the schema-aware statement builder and execution core.
//
// A CRUD call flows through the schema cache (identifier validation), the
// clause generators (fragment plus parameter map per clause), parameter
// reconciliation against the assembled text, and finally the connection
// layer. The transaction coordinator wraps raw statement batches, screening
// each statement against the implicit-commit ruleset first.
//
// An Engine owns one connection session and one schema cache and is not
// safe for concurrent use; create one instance per request or goroutine.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sqlward/sqlward/pkg/clause"
	"github.com/sqlward/sqlward/pkg/conn"
	"github.com/sqlward/sqlward/pkg/param"
	"github.com/sqlward/sqlward/pkg/schema"
)

// Engine builds, validates and executes single-table SQL statements.
type Engine struct {
	conn   conn.Conn
	schema *schema.Cache
	log    *slog.Logger
	tx     txState
}

// New creates an engine over an established connection. database names the
// schema whose catalog backs identifier validation. The logger may be nil.
func New(c conn.Conn, database string, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		conn:   c,
		schema: schema.NewCache(c, database, log),
		log:    log,
	}
}

// Schema exposes the engine's schema cache, e.g. to force a reload after
// DDL performed through another instance.
func (e *Engine) Schema() *schema.Cache { return e.schema }

// Reconfigure swaps the engine onto a new connection and database,
// discarding the old schema snapshot. The previous connection is closed.
func (e *Engine) Reconfigure(c conn.Conn, database string) error {
	if e.tx == txActive {
		return &TransactionInProgressError{}
	}
	old := e.conn
	e.conn = c
	e.schema = schema.NewCache(c, database, e.log)
	if old != nil {
		return old.Close()
	}
	return nil
}

// Close releases the underlying connection. An active transaction is rolled
// back first, best-effort.
func (e *Engine) Close() error {
	if e.tx == txActive {
		if err := e.Rollback(context.Background()); err != nil {
			e.log.Error("rollback on close failed", "error", err)
		}
	}
	return e.conn.Close()
}

// IsValidSchema reports whether the table (and, when non-empty, the column)
// exists in the loaded schema snapshot.
func (e *Engine) IsValidSchema(table, column string) bool {
	if column == "" {
		return e.schema.IsValidTable(table)
	}
	return e.schema.IsValidColumn(table, column)
}

// Insert writes one or more rows into the table. All rows must share one
// column set. When upsert is true and a primary key collides, every
// non-key column is updated with the new row's value instead. Returns the
// affected-row count; inserting zero rows is a no-op.
func (e *Engine) Insert(ctx context.Context, table string, rows []map[string]any, upsert bool) (int64, error) {
	name, err := e.validTable(table)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	primaryKey := ""
	if upsert {
		primaryKey, err = e.schema.PrimaryKey(ctx, name)
		if err != nil {
			return 0, err
		}
	}

	ic, err := clause.Values(e.schema, name, rows, upsert, primaryKey)
	if err != nil {
		return 0, err
	}
	if ic.SQL == "" {
		return 0, nil
	}

	sqlText := fmt.Sprintf("INSERT INTO `%s` %s", name, ic.SQL)
	bound, err := param.Reconcile(sqlText, ic.Params)
	if err != nil {
		return 0, err
	}
	e.log.Debug("insert", "table", name, "rows", len(rows), "upsert", upsert)
	return e.conn.Exec(ctx, sqlText, bound)
}

// Update applies column=>value updates to rows matching the where
// conditions. The table's primary key, if present among the updates, is
// treated as the row identity and moved into the where set. Returns the
// affected-row count.
func (e *Engine) Update(ctx context.Context, table string, updates, where map[string]any, conjunction string) (int64, error) {
	name, err := e.validTable(table)
	if err != nil {
		return 0, err
	}
	primaryKey, err := e.schema.PrimaryKey(ctx, name)
	if err != nil {
		return 0, err
	}

	setFrag, pkWhere, err := clause.Set(e.schema, name, updates, where, primaryKey)
	if err != nil {
		return 0, err
	}
	if setFrag.SQL == "" {
		return 0, &clause.EmptyParamsError{Clause: "SET"}
	}

	conditions := make(map[string]any, len(where)+len(pkWhere))
	for k, v := range where {
		conditions[k] = v
	}
	for k, v := range pkWhere {
		conditions[k] = v
	}

	taken := make(map[string]bool, len(setFrag.Params))
	for k := range setFrag.Params {
		taken[k] = true
	}
	whereFrag, err := clause.Where(e.schema, name, conditions, conjunction, taken)
	if err != nil {
		return 0, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "UPDATE `%s` SET %s", name, setFrag.SQL)
	if whereFrag.SQL != "" {
		b.WriteString(" WHERE ")
		b.WriteString(whereFrag.SQL)
	}
	sqlText := b.String()

	params := make(map[string]any, len(setFrag.Params)+len(whereFrag.Params))
	for k, v := range setFrag.Params {
		params[k] = v
	}
	for k, v := range whereFrag.Params {
		params[k] = v
	}
	bound, err := param.Reconcile(sqlText, params)
	if err != nil {
		return 0, err
	}
	e.log.Debug("update", "table", name, "columns", len(setFrag.Params))
	return e.conn.Exec(ctx, sqlText, bound)
}

// Select fetches rows matching the where conditions, with optional ordering
// and LIMIT offset/count. An empty where selects the whole table.
func (e *Engine) Select(ctx context.Context, table string, where map[string]any, conjunction string, offset, limit int, orderBy []clause.Order) ([]map[string]any, error) {
	name, err := e.validTable(table)
	if err != nil {
		return nil, err
	}

	whereFrag, err := clause.Where(e.schema, name, where, conjunction, nil)
	if err != nil {
		return nil, err
	}
	orderText, err := clause.OrderBy(e.schema, name, orderBy)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT * FROM `%s`", name)
	if whereFrag.SQL != "" {
		b.WriteString(" WHERE ")
		b.WriteString(whereFrag.SQL)
	}
	if orderText != "" {
		b.WriteString(" ")
		b.WriteString(orderText)
	}
	if limitText := clause.Limit(offset, limit); limitText != "" {
		b.WriteString(" ")
		b.WriteString(limitText)
	}
	sqlText := b.String()

	bound, err := param.Reconcile(sqlText, whereFrag.Params)
	if err != nil {
		return nil, err
	}
	return e.conn.QueryAll(ctx, sqlText, bound)
}

// Delete removes rows matching the where conditions. Deleting with no
// conditions wipes the table and must be requested explicitly with
// deleteAll; otherwise it is rejected.
func (e *Engine) Delete(ctx context.Context, table string, where map[string]any, conjunction string, deleteAll bool) (int64, error) {
	name, err := e.validTable(table)
	if err != nil {
		return 0, err
	}
	if len(where) == 0 && !deleteAll {
		return 0, &clause.EmptyParamsError{Clause: "WHERE"}
	}

	whereFrag, err := clause.Where(e.schema, name, where, conjunction, nil)
	if err != nil {
		return 0, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "DELETE FROM `%s`", name)
	if whereFrag.SQL != "" {
		b.WriteString(" WHERE ")
		b.WriteString(whereFrag.SQL)
	}
	sqlText := b.String()

	bound, err := param.Reconcile(sqlText, whereFrag.Params)
	if err != nil {
		return 0, err
	}
	e.log.Debug("delete", "table", name, "conditions", len(where), "all", deleteAll)
	return e.conn.Exec(ctx, sqlText, bound)
}

// validTable normalizes and checks the table name against the snapshot.
func (e *Engine) validTable(table string) (string, error) {
	name, err := schema.ValidateIdentifier(table)
	if err != nil {
		return "", err
	}
	if !e.schema.IsValidTable(name) {
		return "", &schema.InvalidTableError{Table: name}
	}
	return name, nil
}
