package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"obra/internal/core"
)

// Store bundles an open connection pool with its dialect. Repositories and
// the aggregation queries share one store; each logical operation runs in
// its own transaction.
type Store struct {
	DB      *sqlx.DB
	Dialect Dialect
}

func NewStore(db *sqlx.DB, d Dialect) *Store {
	return &Store{DB: db, Dialect: d}
}

// Close is idempotent.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// WithTx runs fn inside a transaction and rolls back on error or panic.
// Errors from fn pass through untouched so validation failures keep their
// type; begin/commit failures surface as StorageError.
func (s *Store) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return s.withTx(ctx, nil, fn)
}

// WithReadTx runs fn inside a read-only snapshot transaction where the
// backend supports one.
func (s *Store) WithReadTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return s.withTx(ctx, s.Dialect.ReadTxOptions(), fn)
}

func (s *Store) withTx(ctx context.Context, opts *sql.TxOptions, fn func(*sqlx.Tx) error) error {
	tx, err := s.DB.BeginTxx(ctx, opts)
	if err != nil {
		return &core.StorageError{Op: "begin transaction", Err: err}
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return &core.StorageError{Op: "rollback", Err: errors.Join(err, rbErr)}
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return &core.StorageError{Op: "commit transaction", Err: err}
	}
	return nil
}

// wrapStorage types driver failures while letting validation and not-found
// errors pass through with their kind intact.
func wrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	if core.IsValidation(err) || core.IsNotFound(err) {
		return err
	}
	var se *core.StorageError
	if errors.As(err, &se) {
		return err
	}
	return &core.StorageError{Op: op, Err: err}
}
