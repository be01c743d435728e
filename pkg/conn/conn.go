// Package conn is the driver collaborator boundary: prepare, bind, execute
// and fetch primitives over a single database session, plus explicit
// transaction control.
//
// The engine core hands this package finished SQL text with :name
// placeholders and a reconciled parameter map; nothing here builds or
// validates SQL. The MySQL implementation pins one session from the pool so
// transaction state and LAST_INSERT_ID belong to a single connection, which
// is the concurrency model the engine assumes: one instance, one session,
// one in-flight statement.
package conn

import (
	"context"

	"github.com/sqlward/sqlward/pkg/param"
)

// Statement is a prepared statement handle. Bind parameters by name, then
// Execute exactly once; fetches read the captured result set.
type Statement interface {
	// Bind stages a named parameter value with its storage type.
	Bind(name string, value any, t param.Type) error

	// Execute runs the statement. Placeholders without a staged value fail
	// with a *BindError; driver failures surface as *ExecError.
	Execute(ctx context.Context) error

	// FetchAll returns every row of the result set as column->value maps.
	FetchAll() ([]map[string]any, error)

	// FetchOne returns the next unread row, or nil when exhausted.
	FetchOne() (map[string]any, error)

	// RowCount returns the affected-row count of a write, or the number of
	// fetched rows for a read.
	RowCount() int64

	// Close releases the prepared statement.
	Close() error
}

// Conn is the connection contract the engine core requires.
type Conn interface {
	// Prepare compiles sqlText into a Statement. Failure is a *PrepareError.
	Prepare(ctx context.Context, sqlText string) (Statement, error)

	// Exec prepares, binds and executes a write statement, returning the
	// affected-row count. Parameter types are inferred from the values.
	Exec(ctx context.Context, sqlText string, params map[string]any) (int64, error)

	// QueryAll prepares, binds and executes a read, returning all rows.
	QueryAll(ctx context.Context, sqlText string, params map[string]any) ([]map[string]any, error)

	// QueryOne is QueryAll limited to the first row; nil when there is none.
	QueryOne(ctx context.Context, sqlText string, params map[string]any) (map[string]any, error)

	// LastInsertID returns the auto-increment id of the session's most
	// recent insert, as a decimal string; "0" when there is none.
	LastInsertID() string

	// BeginTransaction opens a transaction on the session.
	BeginTransaction(ctx context.Context) error

	// Commit persists the open transaction.
	Commit(ctx context.Context) error

	// Rollback discards the open transaction.
	Rollback(ctx context.Context) error

	// InTransaction reports whether the session still holds an open
	// transaction. After a statement that forced an implicit commit this
	// answers false even though Commit was never called.
	InTransaction(ctx context.Context) bool

	// Close releases the session and, when owned, the underlying pool.
	Close() error
}
