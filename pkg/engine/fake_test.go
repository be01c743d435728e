package engine

import (
	"context"
	"strings"

	"github.com/sqlward/sqlward/pkg/conn"
	"github.com/sqlward/sqlward/pkg/param"
)

// call records one statement handed to the fake connection.
type call struct {
	sql    string
	params map[string]any
}

// fakeConn satisfies conn.Conn and, structurally, the schema cache's
// Querier. Catalog queries are answered from a canned fixture; everything
// else is recorded for assertions.
type fakeConn struct {
	execs   []call
	queries []call

	execRows int64
	execErr  error
	queryOut []map[string]any
	queryErr error
	lastID   string

	inTx      bool
	begins    int
	commits   int
	rollbacks int
	beginErr  error
	commitErr error

	// raw-statement behavior for batch tests, keyed by statement text
	stmtErr       map[string]error
	stmtRows      map[string][]map[string]any
	implicitAfter map[string]bool
	executed      []string

	closed bool
}

var _ conn.Conn = (*fakeConn)(nil)

// catalogRows is the fixture behind the information_schema queries: a users
// table whose full_name column is generated, with id as primary key.
func catalogRows(sqlText string) ([]map[string]any, bool) {
	switch {
	case strings.Contains(sqlText, "information_schema.columns"):
		rows := []map[string]any{
			{"table_name": "users", "column_name": "id", "data_type": "int", "extra": "auto_increment"},
			{"table_name": "users", "column_name": "name", "data_type": "varchar", "extra": ""},
			{"table_name": "users", "column_name": "email", "data_type": "varchar", "extra": ""},
			{"table_name": "users", "column_name": "status", "data_type": "varchar", "extra": ""},
			{"table_name": "users", "column_name": "age", "data_type": "int", "extra": ""},
			{"table_name": "users", "column_name": "full_name", "data_type": "varchar", "extra": "STORED GENERATED"},
		}
		return rows, true
	case strings.Contains(sqlText, "information_schema.triggers"):
		return nil, true
	case strings.Contains(sqlText, "information_schema.key_column_usage"):
		return []map[string]any{{"column_name": "id"}}, true
	}
	return nil, false
}

func (f *fakeConn) Prepare(_ context.Context, sqlText string) (conn.Statement, error) {
	return &fakeStmt{c: f, sql: sqlText}, nil
}

func (f *fakeConn) Exec(_ context.Context, sqlText string, params map[string]any) (int64, error) {
	f.execs = append(f.execs, call{sql: sqlText, params: params})
	return f.execRows, f.execErr
}

func (f *fakeConn) QueryAll(_ context.Context, sqlText string, params map[string]any) ([]map[string]any, error) {
	if rows, ok := catalogRows(sqlText); ok {
		return rows, nil
	}
	f.queries = append(f.queries, call{sql: sqlText, params: params})
	return f.queryOut, f.queryErr
}

func (f *fakeConn) QueryOne(ctx context.Context, sqlText string, params map[string]any) (map[string]any, error) {
	rows, err := f.QueryAll(ctx, sqlText, params)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (f *fakeConn) LastInsertID() string {
	if f.lastID == "" {
		return "0"
	}
	return f.lastID
}

func (f *fakeConn) BeginTransaction(context.Context) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	f.begins++
	f.inTx = true
	return nil
}

func (f *fakeConn) Commit(context.Context) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.commits++
	f.inTx = false
	return nil
}

func (f *fakeConn) Rollback(context.Context) error {
	f.rollbacks++
	f.inTx = false
	return nil
}

func (f *fakeConn) InTransaction(context.Context) bool { return f.inTx }

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

type fakeStmt struct {
	c      *fakeConn
	sql    string
	cursor int
}

func (s *fakeStmt) Bind(string, any, param.Type) error { return nil }

func (s *fakeStmt) Execute(context.Context) error {
	if err := s.c.stmtErr[s.sql]; err != nil {
		return err
	}
	s.c.executed = append(s.c.executed, s.sql)
	if s.c.implicitAfter[s.sql] {
		s.c.inTx = false
	}
	return nil
}

func (s *fakeStmt) FetchAll() ([]map[string]any, error) {
	rows := s.c.stmtRows[s.sql]
	s.cursor = len(rows)
	return rows, nil
}

func (s *fakeStmt) FetchOne() (map[string]any, error) {
	rows := s.c.stmtRows[s.sql]
	if s.cursor >= len(rows) {
		return nil, nil
	}
	row := rows[s.cursor]
	s.cursor++
	return row, nil
}

func (s *fakeStmt) RowCount() int64 { return int64(len(s.c.stmtRows[s.sql])) }

func (s *fakeStmt) Close() error { return nil }
