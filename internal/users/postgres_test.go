package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreWithMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db), mock
}

const (
	insertUserQuery = `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*password\)\s*VALUES\s*\(\$1,\s*\$2\)\s*RETURNING\s+id$`
	selectUserQuery = `(?s)^SELECT\s+id,\s*username,\s*password\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1$`
	listUsersQuery  = `^SELECT id, username FROM users ORDER BY id$`
)

func TestPostgresAddNewUser(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectQuery(insertUserQuery).
		WithArgs("alice", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	ids, err := store.AddNewUser(context.Background(), Credential{Username: "alice", Password: "hash"})
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAddNewUserUniqueViolation(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectQuery(insertUserQuery).
		WithArgs("alice", "hash").
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, Message: "duplicate key"})

	_, err := store.AddNewUser(context.Background(), Credential{Username: "alice", Password: "hash"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestPostgresAddNewUserDBError(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectQuery(insertUserQuery).
		WithArgs("alice", "hash").
		WillReturnError(errors.New("db down"))

	_, err := store.AddNewUser(context.Background(), Credential{Username: "alice", Password: "hash"})
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
	assert.NotErrorIs(t, err, ErrUsernameTaken)
}

func TestPostgresAuthUserFound(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectQuery(selectUserQuery).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password"}).AddRow(int64(7), "alice", "hash"))

	user, err := store.AuthUser(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, User{ID: 7, Username: "alice", Password: "hash"}, *user)
}

func TestPostgresAuthUserNotFound(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectQuery(selectUserQuery).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	user, err := store.AuthUser(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestPostgresAuthUserDBError(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectQuery(selectUserQuery).
		WithArgs("alice").
		WillReturnError(errors.New("db err"))

	_, err := store.AuthUser(context.Background(), "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

func TestPostgresFind(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectQuery(listUsersQuery).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).
			AddRow(int64(1), "alice").
			AddRow(int64(2), "bob"))

	list, err := store.Find(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Summary{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}}, list)
}

func TestPostgresFindEmpty(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectQuery(listUsersQuery).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}))

	list, err := store.Find(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestPostgresFindDBError(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectQuery(listUsersQuery).WillReturnError(errors.New("boom"))

	_, err := store.Find(context.Background())
	require.Error(t, err)
}

func TestPostgresMigrateUsesEmbeddedFS(t *testing.T) {
	store, _ := newStoreWithMock(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, store.Migrate(context.Background()))
	assert.Equal(t, ".", gotDir)

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("migrate failed")
	}
	err := store.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run migrations")
}
