package database

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	werrors "github.com/wrale/isoreplay/internal/isoreplay/errors"
)

func TestParseIsolationLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    sql.IsolationLevel
		wantErr bool
	}{
		{in: "", want: LevelDefault},
		{in: "serializable", want: LevelSerializable},
		{in: "READ COMMITTED", want: LevelReadCommitted},
		{in: "read_uncommitted", want: LevelReadUncommitted},
		{in: "repeatable-read", want: LevelRepeatableRead},
		{in: "snapshot", want: LevelSnapshot},
		{in: "linearizable-ish", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIsolationLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "REPEATABLE READ", IsolationSQL(LevelRepeatableRead))
	assert.Equal(t, "", IsolationSQL(LevelSnapshot))
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "pq", err: &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}, want: "duplicate key value violates unique constraint"},
		{name: "pgx", err: &pgconn.PgError{Code: "40001", Message: "could not serialize access due to concurrent update"}, want: "could not serialize access due to concurrent update"},
		{name: "mysql", err: &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}, want: "Deadlock found when trying to get lock"},
		{name: "wrapped", err: fmt.Errorf("exec: %w", &pq.Error{Message: "syntax error"}), want: "syntax error"},
		{name: "plain", err: errors.New("driver: bad connection"), want: "driver: bad connection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage(tt.err))
		})
	}
}

func TestMapError(t *testing.T) {
	assert.NoError(t, MapError(nil, "op"))
	assert.True(t, werrors.IsConflict(MapError(&pq.Error{Code: "23505"}, "op")))
	assert.True(t, werrors.IsConflict(MapError(&pgconn.PgError{Code: "23505"}, "op")))
	assert.True(t, werrors.IsNotFound(MapError(sql.ErrNoRows, "op")))
	assert.True(t, werrors.IsInvalidInput(MapError(&pq.Error{Code: "23514", Message: "check"}, "op")))

	err := MapError(errors.New("boom"), "op")
	var domainErr *werrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INTERNAL", domainErr.Code)
	assert.Equal(t, "op: boom", err.Error())
}

func TestMapError_Categories(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		is   func(error) bool
	}{
		{
			name: "postgres undefined table",
			err:  &pq.Error{Code: "42P01", Message: `relation "main" does not exist`},
			code: "NOT_FOUND",
			is:   werrors.IsNotFound,
		},
		{
			name: "mysql missing table",
			err:  &mysql.MySQLError{Number: 1146, SQLState: [5]byte{'4', '2', 'S', '0', '2'}, Message: "Table 'test.main' doesn't exist"},
			code: "NOT_FOUND",
			is:   werrors.IsNotFound,
		},
		{
			name: "mysql duplicate entry",
			err:  &mysql.MySQLError{Number: 1062, SQLState: [5]byte{'2', '3', '0', '0', '0'}, Message: "Duplicate entry"},
			code: "CONFLICT",
			is:   werrors.IsConflict,
		},
		{
			name: "sqlite unique constraint",
			err:  sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique},
			code: "CONFLICT",
			is:   werrors.IsConflict,
		},
		{
			name: "wrapped pgconn conflict",
			err:  fmt.Errorf("error applying schema 1: %w", &pgconn.PgError{Code: "23505"}),
			code: "CONFLICT",
			is:   werrors.IsConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapError(tt.err, "schema.Setup")
			var domainErr *werrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, tt.code, domainErr.Code)
			assert.Equal(t, "schema.Setup", domainErr.Op)
			assert.True(t, tt.is(err))
		})
	}
}

func TestParams_ConnString(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		want    string
		wantErr bool
	}{
		{
			name:   "postgres",
			params: Params{Driver: DriverPostgres, Host: "localhost", Port: 5432, Name: "testdb", User: "u", Password: "p", SSLMode: "disable"},
			want:   "host=localhost port=5432 user=u password=p dbname=testdb sslmode=disable",
		},
		{
			name:   "pgx",
			params: Params{Driver: DriverPgx, Host: "db", Port: 5433, Name: "testdb", User: "u", Password: "p", SSLMode: "disable"},
			want:   "postgres://u:p@db:5433/testdb?sslmode=disable",
		},
		{
			name:   "mysql",
			params: Params{Driver: DriverMySQL, Host: "localhost", Port: 9999, Name: "testDB", User: "root", Password: "123"},
			want:   "root:123@tcp(localhost:9999)/testDB?multiStatements=true",
		},
		{
			name:   "dsn_override",
			params: Params{Driver: DriverSQLite, DSN: "file:x?mode=memory"},
			want:   "file:x?mode=memory",
		},
		{
			name:    "unknown",
			params:  Params{Driver: "oracle"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.params.ConnString()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, DriverPostgres, Params{Driver: DriverPgx}.Dialect())
}
