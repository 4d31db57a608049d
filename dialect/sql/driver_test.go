package sql

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/pgcomposite/dialect"
)

func TestWithVars(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	drv := OpenDB(dialect.Postgres, db)

	mock.ExpectExec("SET search_path = 'app'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("RESET search_path").WillReturnResult(sqlmock.NewResult(0, 0))
	rows := &Rows{}
	err = drv.Query(WithVar(context.Background(), "search_path", "app"), "SELECT 1", []any{}, rows)
	require.NoError(t, err)
	require.NoError(t, rows.Close(), "rows should be closed to release the connection")
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectExec("SET search_path = 'a'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SET search_path = 'b'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SET 1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("RESET search_path").WillReturnResult(sqlmock.NewResult(0, 0))
	ctx := WithVar(WithVar(context.Background(), "search_path", "a"), "search_path", "b")
	require.NoError(t, drv.Exec(ctx, "SET 1", []any{}, nil))
	require.NoError(t, mock.ExpectationsWereMet())

	v, ok := VarFromContext(ctx, "search_path")
	assert.True(t, ok)
	assert.Equal(t, "b", v)
	_, ok = VarFromContext(ctx, "timezone")
	assert.False(t, ok)
}

func TestWithVarsInvalidIdentifier(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.Postgres, db)
	err = drv.Exec(WithVar(context.Background(), "x; DROP TABLE t", "v"), "SELECT 1", []any{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid session variable name")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithVarsEscapedValue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.Postgres, db)
	mock.ExpectExec("SET search_path = 'it''s'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SELECT 1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("RESET search_path").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, drv.Exec(WithVar(context.Background(), "search_path", "it's"), "SELECT 1", []any{}, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.Postgres, db)

	mock.ExpectQuery("SELECT typname FROM pg_type").
		WithArgs("e").
		WillReturnRows(sqlmock.NewRows([]string{"typname"}).AddRow("status").AddRow("mood"))
	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), "SELECT typname FROM pg_type WHERE typtype = $1", []any{"e"}, rows))
	var names []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names = append(names, n)
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())
	assert.Equal(t, []string{"status", "mood"}, names)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Error(t, drv.Query(context.Background(), "SELECT 1", []any{}, nil))
	assert.Error(t, drv.Query(context.Background(), "SELECT 1", "bad", &Rows{}))
}

func TestDriverExec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.Postgres, db)

	mock.ExpectExec("UPDATE t").WillReturnResult(sqlmock.NewResult(0, 3))
	var res sql.Result
	require.NoError(t, drv.Exec(context.Background(), "UPDATE t SET x = 1", []any{}, &res))
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	assert.Error(t, drv.Exec(context.Background(), "UPDATE t", []any{}, new(int)))
	assert.Error(t, drv.Exec(context.Background(), "UPDATE t", "bad", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverLogger(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	drv := OpenDB(dialect.Postgres, db, WithLogger(logger))

	mock.ExpectExec("SELECT 1").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, drv.Exec(context.Background(), "SELECT 1", []any{}, nil))
	assert.Contains(t, buf.String(), "sql statement")
	assert.Contains(t, buf.String(), "query=\"SELECT 1\"")
}

func TestDialectMethod(t *testing.T) {
	for in, want := range map[string]string{
		"postgres": dialect.Postgres,
		"pgx":      dialect.Postgres,
		"mysql":    "mysql",
	} {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		assert.Equal(t, want, OpenDB(in, db).Dialect(), in)
	}
}

func TestIsValidIdentifier(t *testing.T) {
	assert.True(t, isValidIdentifier("search_path"))
	assert.True(t, isValidIdentifier("app.tenant"))
	assert.False(t, isValidIdentifier(""))
	assert.False(t, isValidIdentifier("1abc"))
	assert.False(t, isValidIdentifier("a b"))
	assert.Equal(t, "'a''b'", quoteLiteral("a'b"))
}
