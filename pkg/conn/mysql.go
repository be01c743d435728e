package conn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/sqlward/sqlward/pkg/param"
)

// trxProbeQuery asks the server whether this session's thread currently
// holds an open InnoDB transaction. Local bookkeeping alone cannot answer
// that: a statement with implicit-commit semantics ends the transaction
// server-side without the client issuing COMMIT.
const trxProbeQuery = `SELECT COUNT(*) FROM information_schema.innodb_trx WHERE trx_mysql_thread_id = CONNECTION_ID()`


// MySQLConn implements Conn over a single pinned database/sql session.
type MySQLConn struct {
	db           *sql.DB
	sess         *sql.Conn
	ownsDB       bool
	log          *slog.Logger
	lastInsertID int64
	inTx         bool
}

var _ Conn = (*MySQLConn)(nil)

// Dial opens a MySQL connection for dsn and pins one session from the pool.
// The logger may be nil.
func Dial(ctx context.Context, dsn string, log *slog.Logger) (*MySQLConn, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	c, err := New(ctx, db, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	c.ownsDB = true
	return c, nil
}

// New wraps an existing pool, pinning one session from it. The pool stays
// the caller's to close.
func New(ctx context.Context, db *sql.DB, log *slog.Logger) (*MySQLConn, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	sess, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session: %w", err)
	}
	return &MySQLConn{db: db, sess: sess, log: log}, nil
}

// Close releases the pinned session and, when this conn opened it, the pool.
func (c *MySQLConn) Close() error {
	var errs []error
	if c.sess != nil {
		errs = append(errs, c.sess.Close())
		c.sess = nil
	}
	if c.ownsDB && c.db != nil {
		errs = append(errs, c.db.Close())
		c.db = nil
	}
	return errors.Join(errs...)
}

// expandNamed rewrites :name placeholders to the driver's positional ?,
// returning the occurrence order so values can be lined up at execute time.
// Quoted regions pass through verbatim: a :name inside a string literal or
// a backtick-quoted identifier is data, not a placeholder. String literals
// honor backslash escapes; doubled quotes close and reopen the region,
// which copies them unchanged either way.
func expandNamed(sqlText string) (string, []string) {
	var b strings.Builder
	var names []string
	for i := 0; i < len(sqlText); {
		switch ch := sqlText[i]; ch {
		case '\'', '"', '`':
			j := i + 1
			for j < len(sqlText) {
				if ch != '`' && sqlText[j] == '\\' {
					j += 2
					continue
				}
				if sqlText[j] == ch {
					j++
					break
				}
				j++
			}
			if j > len(sqlText) {
				j = len(sqlText)
			}
			b.WriteString(sqlText[i:j])
			i = j
		case ':':
			j := i + 1
			for j < len(sqlText) && isNameByte(sqlText[j], j == i+1) {
				j++
			}
			if j == i+1 {
				b.WriteByte(ch)
				i++
				continue
			}
			names = append(names, sqlText[i+1:j])
			b.WriteByte('?')
			i = j
		default:
			b.WriteByte(ch)
			i++
		}
	}
	return b.String(), names
}

// isNameByte reports whether c may appear in a placeholder name. The first
// byte must be a letter or underscore.
func isNameByte(c byte, first bool) bool {
	if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' {
		return true
	}
	return !first && c >= '0' && c <= '9'
}

// Prepare compiles sqlText on the pinned session.
func (c *MySQLConn) Prepare(ctx context.Context, sqlText string) (Statement, error) {
	expanded, names := expandNamed(sqlText)
	st, err := c.sess.PrepareContext(ctx, expanded)
	if err != nil {
		return nil, &PrepareError{SQL: sqlText, Err: err}
	}
	return &mysqlStmt{
		conn:  c,
		stmt:  st,
		sql:   sqlText,
		names: names,
		bound: make(map[string]any),
	}, nil
}

// Exec prepares, binds and executes a write, returning its row count.
func (c *MySQLConn) Exec(ctx context.Context, sqlText string, params map[string]any) (int64, error) {
	st, err := c.runStatement(ctx, sqlText, params)
	if err != nil {
		return 0, err
	}
	defer func() { _ = st.Close() }()
	return st.RowCount(), nil
}

// QueryAll prepares, binds and executes a read, returning every row.
func (c *MySQLConn) QueryAll(ctx context.Context, sqlText string, params map[string]any) ([]map[string]any, error) {
	st, err := c.runStatement(ctx, sqlText, params)
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()
	return st.FetchAll()
}

// QueryOne returns the first row of a read, or nil when there is none.
func (c *MySQLConn) QueryOne(ctx context.Context, sqlText string, params map[string]any) (map[string]any, error) {
	st, err := c.runStatement(ctx, sqlText, params)
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()
	return st.FetchOne()
}

func (c *MySQLConn) runStatement(ctx context.Context, sqlText string, params map[string]any) (Statement, error) {
	st, err := c.Prepare(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	for name, value := range params {
		t, err := param.TypeOf(name, value)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		if err := st.Bind(name, value, t); err != nil {
			_ = st.Close()
			return nil, err
		}
	}
	if err := st.Execute(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// LastInsertID returns the session's most recent auto-increment id.
func (c *MySQLConn) LastInsertID() string {
	return strconv.FormatInt(c.lastInsertID, 10)
}

// BeginTransaction issues START TRANSACTION on the session. Transaction
// control runs as plain statements rather than database/sql's Tx wrapper so
// that a server-side implicit commit leaves the session in a state this
// layer can still observe and report.
func (c *MySQLConn) BeginTransaction(ctx context.Context) error {
	if _, err := c.sess.ExecContext(ctx, "START TRANSACTION"); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	c.inTx = true
	return nil
}

// Commit persists the open transaction.
func (c *MySQLConn) Commit(ctx context.Context) error {
	if _, err := c.sess.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	c.inTx = false
	return nil
}

// Rollback discards the open transaction.
func (c *MySQLConn) Rollback(ctx context.Context) error {
	if _, err := c.sess.ExecContext(ctx, "ROLLBACK"); err != nil {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	c.inTx = false
	return nil
}

// InTransaction probes the server for this session's open transaction.
// When the probe itself fails, local bookkeeping is the fallback answer.
func (c *MySQLConn) InTransaction(ctx context.Context) bool {
	var count int64
	if err := c.sess.QueryRowContext(ctx, trxProbeQuery).Scan(&count); err != nil {
		c.log.Debug("transaction probe failed, using local state", "error", err)
		return c.inTx
	}
	return count > 0
}

// mysqlStmt is the Statement implementation over *sql.Stmt.
type mysqlStmt struct {
	conn     *MySQLConn
	stmt     *sql.Stmt
	sql      string
	names    []string // placeholder occurrence order, duplicates included
	bound    map[string]any
	rows     []map[string]any
	cursor   int
	rowCount int64
	executed bool
}

// Bind stages a value for the named placeholder. The value is converted
// according to its storage type; floats travel as strings so the server
// parses them at full precision.
func (s *mysqlStmt) Bind(name string, value any, t param.Type) error {
	if s.executed {
		return &BindError{Name: name, Reason: "statement already executed"}
	}
	switch t {
	case param.Null:
		s.bound[name] = nil
	case param.String:
		switch f := value.(type) {
		case float32:
			s.bound[name] = strconv.FormatFloat(float64(f), 'f', -1, 32)
		case float64:
			s.bound[name] = strconv.FormatFloat(f, 'f', -1, 64)
		default:
			s.bound[name] = value
		}
	default:
		s.bound[name] = value
	}
	return nil
}

// isRowQuery reports whether the statement produces a result set.
func isRowQuery(sqlText string) bool {
	head := strings.ToUpper(strings.TrimSpace(sqlText))
	for _, prefix := range []string{"SELECT", "SHOW", "DESCRIBE", "DESC ", "EXPLAIN"} {
		if strings.HasPrefix(head, prefix) {
			return true
		}
	}
	return false
}

// Execute binds the staged values in placeholder order and runs the
// statement, capturing either the full result set or the write counters.
func (s *mysqlStmt) Execute(ctx context.Context) error {
	args := make([]any, len(s.names))
	for i, name := range s.names {
		value, ok := s.bound[name]
		if !ok {
			return &BindError{Name: name, Reason: "no value bound"}
		}
		args[i] = value
	}
	s.executed = true

	if isRowQuery(s.sql) {
		rows, err := s.stmt.QueryContext(ctx, args...)
		if err != nil {
			return wrapExecError(err)
		}
		defer func() { _ = rows.Close() }()
		fetched, err := scanRows(rows)
		if err != nil {
			return wrapExecError(err)
		}
		s.rows = fetched
		s.rowCount = int64(len(fetched))
		return nil
	}

	res, err := s.stmt.ExecContext(ctx, args...)
	if err != nil {
		return wrapExecError(err)
	}
	if n, err := res.RowsAffected(); err == nil {
		s.rowCount = n
	}
	if id, err := res.LastInsertId(); err == nil && id != 0 {
		s.conn.lastInsertID = id
	}
	return nil
}

// FetchAll returns the captured result set.
func (s *mysqlStmt) FetchAll() ([]map[string]any, error) {
	if !s.executed {
		return nil, &ExecError{Err: errors.New("statement not executed")}
	}
	s.cursor = len(s.rows)
	return s.rows, nil
}

// FetchOne returns the next unread row, or nil when exhausted.
func (s *mysqlStmt) FetchOne() (map[string]any, error) {
	if !s.executed {
		return nil, &ExecError{Err: errors.New("statement not executed")}
	}
	if s.cursor >= len(s.rows) {
		return nil, nil
	}
	row := s.rows[s.cursor]
	s.cursor++
	return row, nil
}

func (s *mysqlStmt) RowCount() int64 { return s.rowCount }

func (s *mysqlStmt) Close() error { return s.stmt.Close() }

// scanRows drains a result set into column->value maps, normalizing the
// driver's []byte text values to string.
func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// wrapExecError lifts the driver's error number and message into ExecError
// when the failure is a server-reported one.
func wrapExecError(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return &ExecError{Code: int(myErr.Number), Message: myErr.Message, Err: err}
	}
	return &ExecError{Err: err}
}
