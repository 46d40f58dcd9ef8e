// Package storage is the persistence layer: backend selection, the schema
// manager, the seeder, the dialect adapter, and the entity repositories.
// All SQL is authored once against the dialect primitives; the embedded and
// server backends produce identical row shapes at the repository boundary.
package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"obra/internal/log"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Tables in FK-safe drop order: children before parents.
var tableDropOrder = []string{"attachments", "entries", "categories", "projects", "users"}

// SchemaManager applies the authored-once DDL for each backend.
type SchemaManager struct {
	store  *Store
	logger *log.Logger
}

func NewSchemaManager(store *Store, logger *log.Logger) *SchemaManager {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SchemaManager{store: store, logger: logger.WithComponent(log.ComponentSchema)}
}

// Ensure creates the five tables, indexes, and (on the server backend) the
// updated_at triggers. Idempotent: an up-to-date schema is a silent no-op.
func (m *SchemaManager) Ensure(ctx context.Context) error {
	mg, err := m.migrator()
	if err != nil {
		return wrapStorage("prepare migrations", err)
	}
	if err := mg.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.DebugContext(ctx, "Schema already up to date")
			return nil
		}
		return wrapStorage("apply schema", err)
	}
	m.logger.InfoContext(ctx, "Schema applied", log.FieldBackend, m.store.Dialect.Kind())
	return nil
}

// Rebuild drops the five tables in FK-safe order together with the
// migration bookkeeping, then re-applies the DDL. Destructive; it exists
// for operational recovery only.
func (m *SchemaManager) Rebuild(ctx context.Context) error {
	cascade := ""
	if m.store.Dialect.Kind() == BackendServer {
		cascade = " CASCADE"
	}
	for _, table := range append(append([]string{}, tableDropOrder...), "schema_migrations") {
		stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s%s", table, cascade)
		if _, err := m.store.DB.ExecContext(ctx, stmt); err != nil {
			return wrapStorage("drop "+table, err)
		}
		m.logger.DebugContext(ctx, "Dropped table", log.FieldTable, table)
	}
	m.logger.WarnContext(ctx, "Schema dropped, recreating", log.FieldBackend, m.store.Dialect.Kind())
	return m.Ensure(ctx)
}

// TableExists probes the catalog for a table.
func (m *SchemaManager) TableExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	if err := m.store.DB.GetContext(ctx, &exists, m.store.Dialect.TableExistsSQL(), name); err != nil {
		return false, wrapStorage("probe table "+name, err)
	}
	return exists, nil
}

func (m *SchemaManager) migrator() (*migrate.Migrate, error) {
	var (
		driver database.Driver
		name   string
		dir    string
		err    error
	)
	switch m.store.Dialect.Kind() {
	case BackendServer:
		driver, err = pgmigrate.WithInstance(m.store.DB.DB, &pgmigrate.Config{})
		name, dir = "postgres", "migrations/postgres"
	default:
		driver, err = sqlitemigrate.WithInstance(m.store.DB.DB, &sqlitemigrate.Config{})
		name, dir = "sqlite", "migrations/sqlite"
	}
	if err != nil {
		return nil, fmt.Errorf("create %s migration driver: %w", name, err)
	}

	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	// Not closed on purpose: closing the instance would close the shared
	// connection pool on the embedded backend.
	return migrate.NewWithInstance("iofs", src, name, driver)
}
