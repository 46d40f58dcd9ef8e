package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obra/internal/core"
)

func mockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(sqlx.NewDb(db, "sqlmock"), DialectFor(BackendEmbedded)), mock
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	store, mock := mockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE categories").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(tx *sqlx.Tx) error {
		_, err := tx.Exec("UPDATE categories SET active = 1")
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	store, mock := mockStore(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := store.WithTx(context.Background(), func(tx *sqlx.Tx) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxKeepsValidationErrorKind(t *testing.T) {
	store, mock := mockStore(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(tx *sqlx.Tx) error {
		return core.Invalid("amount", core.ReasonNonPositive)
	})
	assert.True(t, core.IsValidation(err), "validation errors must survive the transaction wrapper")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	store, mock := mockStore(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = store.WithTx(context.Background(), func(tx *sqlx.Tx) error {
			panic("boom")
		})
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxBeginFailure(t *testing.T) {
	store, mock := mockStore(t)
	mock.ExpectBegin().WillReturnError(errors.New("down"))

	err := store.WithTx(context.Background(), func(tx *sqlx.Tx) error { return nil })
	var se *core.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "begin transaction", se.Op)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWrapStoragePassthrough(t *testing.T) {
	assert.NoError(t, wrapStorage("op", nil))

	val := core.Invalid("name", core.ReasonEmptyField)
	assert.Equal(t, error(val), wrapStorage("op", val))

	nf := &core.NotFoundError{Entity: "entry", ID: 3}
	assert.Equal(t, error(nf), wrapStorage("op", nf))

	plain := errors.New("disk full")
	wrapped := wrapStorage("op", plain)
	var se *core.StorageError
	require.ErrorAs(t, wrapped, &se)
	assert.ErrorIs(t, wrapped, plain)

	assert.Equal(t, wrapped, wrapStorage("outer", wrapped), "storage errors must not wrap twice")
}
