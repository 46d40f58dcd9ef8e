package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"obra/internal/core"
	"obra/internal/log"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

// newTestStore opens a throwaway embedded database with the schema applied.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	p := NewProvider("", filepath.Join(t.TempDir(), "ledger.db"), testLogger())
	store, err := p.Open(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	require.NoError(t, NewSchemaManager(store, testLogger()).Ensure(ctx))
	return store
}

// seededStore additionally applies the default seed.
func seededStore(t *testing.T) *Store {
	t.Helper()
	store := newTestStore(t)
	require.NoError(t, NewSeeder(store, testLogger()).SeedIfEmpty(context.Background()))
	return store
}

func mustEntry(t *testing.T, store *Store, projectID, categoryID int64, desc string, cents int64, date core.Date) core.Entry {
	t.Helper()
	e, err := NewEntries(store, testLogger()).Insert(context.Background(), core.Entry{
		ProjectID:   projectID,
		CategoryID:  categoryID,
		Description: desc,
		Amount:      core.Money{Cents: cents},
		Date:        date,
	})
	require.NoError(t, err)
	return e
}
