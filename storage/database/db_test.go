package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/internship/core"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestCreateAppUser(t *testing.T) {
	conf := core.NewTestConfig()
	conf.Database.User, conf.Database.Password = "intern", "pa'ss"

	t.Run("exists", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT true FROM pg_roles`).WithArgs("intern").
			WillReturnRows(sqlmock.NewRows([]string{"bool"}).AddRow(true))
		require.NoError(t, createAppUser(context.Background(), db, conf))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("created", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT true FROM pg_roles`).WithArgs("intern").
			WillReturnRows(sqlmock.NewRows([]string{"bool"}))
		mock.ExpectExec(`CREATE USER "intern" CREATEDB ENCRYPTED PASSWORD 'pa''ss'`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		require.NoError(t, createAppUser(context.Background(), db, conf))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateDB(t *testing.T) {
	conf := core.NewTestConfig()
	conf.Database.Name = "internship"

	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT true FROM pg_database`).WithArgs("internship").
		WillReturnRows(sqlmock.NewRows([]string{"bool"}))
	mock.ExpectExec(`CREATE DATABASE "internship"`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, createDB(context.Background(), db, conf))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	db, _ := newMockDB(t)
	var gotCmd, gotDir string
	var gotArgs []string
	orig := GooseRunFunc
	t.Cleanup(func() { GooseRunFunc = orig })
	GooseRunFunc = func(_ context.Context, command string, _ *sql.DB, dir string, args ...string) error {
		gotCmd, gotDir, gotArgs = command, dir, args
		return nil
	}

	require.NoError(t, Migrate(context.Background(), db, "up-to", "2"))
	assert.Equal(t, "up-to", gotCmd)
	assert.Equal(t, "migrations", gotDir)
	assert.Equal(t, []string{"2"}, gotArgs)
}
