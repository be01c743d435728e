package conn

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlward/sqlward/internal/testutil"
	"github.com/sqlward/sqlward/pkg/param"
)

func newMockConn(t *testing.T) (*MySQLConn, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	c, err := New(context.Background(), db, testutil.NewLogger(t))
	require.NoError(t, err)
	c.ownsDB = true

	t.Cleanup(func() {
		_ = c.Close()
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return c, mock
}

func TestExpandNamed(t *testing.T) {
	tests := []struct {
		name      string
		sql       string
		wantSQL   string
		wantNames []string
	}{
		{
			name:      "no placeholders",
			sql:       "SELECT 1",
			wantSQL:   "SELECT 1",
			wantNames: nil,
		},
		{
			name:      "ordered occurrences",
			sql:       "UPDATE `users` SET `name` = :name WHERE `id` = :id",
			wantSQL:   "UPDATE `users` SET `name` = ? WHERE `id` = ?",
			wantNames: []string{"name", "id"},
		},
		{
			name:      "duplicate name appears twice",
			sql:       "SELECT * FROM `t` WHERE `a` = :x OR `b` = :x",
			wantSQL:   "SELECT * FROM `t` WHERE `a` = ? OR `b` = ?",
			wantNames: []string{"x", "x"},
		},
		{
			name:      "colon inside string literal is data",
			sql:       "INSERT INTO `t` (`note`) VALUES ('see :ref')",
			wantSQL:   "INSERT INTO `t` (`note`) VALUES ('see :ref')",
			wantNames: nil,
		},
		{
			name:      "literal and real placeholder mixed",
			sql:       "UPDATE `t` SET `note` = 'at 12:30' WHERE `id` = :id",
			wantSQL:   "UPDATE `t` SET `note` = 'at 12:30' WHERE `id` = ?",
			wantNames: []string{"id"},
		},
		{
			name:      "escaped quote does not end the literal",
			sql:       `SELECT * FROM t WHERE a = 'it\'s :x' AND b = :b`,
			wantSQL:   `SELECT * FROM t WHERE a = 'it\'s :x' AND b = ?`,
			wantNames: []string{"b"},
		},
		{
			name:      "doubled quote literal",
			sql:       "SELECT 'it''s :x', :y",
			wantSQL:   "SELECT 'it''s :x', ?",
			wantNames: []string{"y"},
		},
		{
			name:      "backtick identifier with colon",
			sql:       "SELECT `weird:name` FROM `t` WHERE `a` = :a",
			wantSQL:   "SELECT `weird:name` FROM `t` WHERE `a` = ?",
			wantNames: []string{"a"},
		},
		{
			name:      "bare colon passes through",
			sql:       "SELECT * FROM t WHERE ts = :ts AND note = ': '",
			wantSQL:   "SELECT * FROM t WHERE ts = ? AND note = ': '",
			wantNames: []string{"ts"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expanded, names := expandNamed(tt.sql)
			assert.Equal(t, tt.wantSQL, expanded)
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestExec(t *testing.T) {
	c, mock := newMockConn(t)

	mock.ExpectPrepare("INSERT INTO `users` (`name`) VALUES (?)").
		ExpectExec().
		WithArgs("ada").
		WillReturnResult(sqlmock.NewResult(13, 1))

	n, err := c.Exec(context.Background(), "INSERT INTO `users` (`name`) VALUES (:name)",
		map[string]any{"name": "ada"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, "13", c.LastInsertID())
}

func TestExec_FloatsTravelAsStrings(t *testing.T) {
	c, mock := newMockConn(t)

	mock.ExpectPrepare("UPDATE `items` SET `price` = ? WHERE `id` = ?").
		ExpectExec().
		WithArgs("19.99", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := c.Exec(context.Background(), "UPDATE `items` SET `price` = :price WHERE `id` = :id",
		map[string]any{"price": 19.99, "id": 7})
	require.NoError(t, err)
}

func TestExec_LiteralColonNeedsNoBinding(t *testing.T) {
	c, mock := newMockConn(t)

	mock.ExpectPrepare("INSERT INTO `t` (`note`) VALUES ('see :ref')").
		ExpectExec().
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := c.Exec(context.Background(), "INSERT INTO `t` (`note`) VALUES ('see :ref')", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestExec_ServerError(t *testing.T) {
	c, mock := newMockConn(t)

	mock.ExpectPrepare("INSERT INTO `users` (`email`) VALUES (?)").
		ExpectExec().
		WithArgs("ada@example.com").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := c.Exec(context.Background(), "INSERT INTO `users` (`email`) VALUES (:email)",
		map[string]any{"email": "ada@example.com"})

	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 1062, execErr.Code)
	assert.Equal(t, "Duplicate entry", execErr.Message)
}

func TestExec_InvalidParamType(t *testing.T) {
	c, mock := newMockConn(t)

	mock.ExpectPrepare("SELECT * FROM `t` WHERE `a` = ?")

	_, err := c.Exec(context.Background(), "SELECT * FROM `t` WHERE `a` = :a",
		map[string]any{"a": []int{1, 2}})

	var invalid *param.InvalidValueTypeError
	require.ErrorAs(t, err, &invalid)
}

func TestQueryAll(t *testing.T) {
	c, mock := newMockConn(t)

	mock.ExpectPrepare("SELECT * FROM `users` WHERE `status` = ?").
		ExpectQuery().
		WithArgs("active").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), []byte("ada")).
			AddRow(int64(2), []byte("grace")))

	rows, err := c.QueryAll(context.Background(), "SELECT * FROM `users` WHERE `status` = :status",
		map[string]any{"status": "active"})
	require.NoError(t, err)

	// Driver []byte text values come back as plain strings.
	assert.Equal(t, []map[string]any{
		{"id": int64(1), "name": "ada"},
		{"id": int64(2), "name": "grace"},
	}, rows)
}

func TestQueryOne(t *testing.T) {
	c, mock := newMockConn(t)

	mock.ExpectPrepare("SELECT * FROM `users` WHERE `id` = ?").
		ExpectQuery().
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	row, err := c.QueryOne(context.Background(), "SELECT * FROM `users` WHERE `id` = :id",
		map[string]any{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int64(1)}, row)
}

func TestQueryOne_NoRows(t *testing.T) {
	c, mock := newMockConn(t)

	mock.ExpectPrepare("SELECT * FROM `users` WHERE `id` = ?").
		ExpectQuery().
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	row, err := c.QueryOne(context.Background(), "SELECT * FROM `users` WHERE `id` = :id",
		map[string]any{"id": 99})
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestPrepare_Error(t *testing.T) {
	c, mock := newMockConn(t)

	mock.ExpectPrepare("SELEC nonsense").WillReturnError(errors.New("syntax error"))

	_, err := c.Prepare(context.Background(), "SELEC nonsense")

	var prepErr *PrepareError
	require.ErrorAs(t, err, &prepErr)
	assert.Equal(t, "SELEC nonsense", prepErr.SQL)
}

func TestExecute_UnboundPlaceholder(t *testing.T) {
	c, mock := newMockConn(t)

	mock.ExpectPrepare("SELECT * FROM `t` WHERE `a` = ? AND `b` = ?")

	st, err := c.Prepare(context.Background(), "SELECT * FROM `t` WHERE `a` = :a AND `b` = :b")
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	require.NoError(t, st.Bind("a", 1, param.Int))

	err = st.Execute(context.Background())

	var bindErr *BindError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "b", bindErr.Name)
}

func TestFetchOne_AdvancesCursor(t *testing.T) {
	c, mock := newMockConn(t)

	mock.ExpectPrepare("SELECT `id` FROM `t`").
		ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))

	st, err := c.Prepare(context.Background(), "SELECT `id` FROM `t`")
	require.NoError(t, err)
	defer func() { _ = st.Close() }()
	require.NoError(t, st.Execute(context.Background()))

	first, err := st.FetchOne()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int64(1)}, first)

	second, err := st.FetchOne()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int64(2)}, second)

	done, err := st.FetchOne()
	require.NoError(t, err)
	assert.Nil(t, done)

	assert.Equal(t, int64(2), st.RowCount())
}

func TestTransactionControl(t *testing.T) {
	c, mock := newMockConn(t)
	ctx := context.Background()

	mock.ExpectExec("START TRANSACTION").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("COMMIT").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("START TRANSACTION").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ROLLBACK").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, c.BeginTransaction(ctx))
	require.NoError(t, c.Commit(ctx))
	require.NoError(t, c.BeginTransaction(ctx))
	require.NoError(t, c.Rollback(ctx))
}

func TestInTransaction_ProbesServer(t *testing.T) {
	c, mock := newMockConn(t)
	ctx := context.Background()

	mock.ExpectQuery(trxProbeQuery).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(1)))
	assert.True(t, c.InTransaction(ctx))

	mock.ExpectQuery(trxProbeQuery).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(0)))
	assert.False(t, c.InTransaction(ctx))
}

func TestInTransaction_ProbeFailureFallsBackToLocalState(t *testing.T) {
	c, mock := newMockConn(t)
	ctx := context.Background()

	mock.ExpectExec("START TRANSACTION").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, c.BeginTransaction(ctx))

	mock.ExpectQuery(trxProbeQuery).WillReturnError(errors.New("probe denied"))
	assert.True(t, c.InTransaction(ctx))
}

func TestDial_BadDSN(t *testing.T) {
	_, err := Dial(context.Background(), "not a dsn", nil)
	require.Error(t, err)
}
