package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVRepoGetDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT value FROM kv WHERE key = ?").
		WithArgs("sign_language_progress").
		WillReturnError(errors.New("disk I/O error"))

	_, ok, err := NewKVRepo(db).Get(context.Background(), "sign_language_progress")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKVRepoGetNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT value FROM kv WHERE key = ?").
		WithArgs("absent").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	value, ok, err := NewKVRepo(db).Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKVRepoPutError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO kv").
		WithArgs("k", []byte("v"), sqlmock.AnyArg()).
		WillReturnError(errors.New("database is locked"))

	err = NewKVRepo(db).Put(context.Background(), "k", []byte("v"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `put "k"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKVRepoDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM kv WHERE key = ?").
		WithArgs("k").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewKVRepo(db).Delete(context.Background(), "k"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
