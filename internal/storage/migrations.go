package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// ExpectedSchemaVersion is the schema version this build reads and writes.
const ExpectedSchemaVersion = 3

// migration is one schema step. Version is stored in PRAGMA user_version
// once every statement has run.
type migration struct {
	description string
	statements  []string
	version     int
}

var migrations = []migration{
	{
		version:     1,
		description: "Initial ledger schema",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS tenants (
				id TEXT PRIMARY KEY,
				name TEXT UNIQUE NOT NULL,
				created_at DATETIME NOT NULL
			)`,
			// (tenant_id, name) is not unique: lookups by name take the lowest id.
			`CREATE TABLE IF NOT EXISTS categories (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				tenant_id TEXT NOT NULL REFERENCES tenants(id),
				name TEXT NOT NULL,
				kind TEXT NOT NULL CHECK (kind IN ('expense', 'income')),
				created_at DATETIME NOT NULL
			)`,
			// No foreign key on category_id: deleting a category leaves its
			// transactions in place.
			`CREATE TABLE IF NOT EXISTS transactions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				tenant_id TEXT NOT NULL REFERENCES tenants(id),
				category_id INTEGER NOT NULL,
				amount TEXT NOT NULL,
				occurred_on TEXT NOT NULL,
				merchant TEXT,
				account TEXT,
				project TEXT,
				tags TEXT,
				note TEXT,
				created_at DATETIME NOT NULL
			)`,
		},
	},
	{
		version:     2,
		description: "Add tenant lookup indexes",
		statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_categories_tenant_name ON categories(tenant_id, name)`,
			`CREATE INDEX IF NOT EXISTS idx_transactions_tenant_date ON transactions(tenant_id, occurred_on)`,
		},
	},
	{
		version:     3,
		description: "Index transactions by category",
		statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_transactions_tenant_category ON transactions(tenant_id, category_id)`,
		},
	},
}

// SchemaVersion reports the schema version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, wrapStorageError("get schema version", err)
	}
	return version, nil
}

// Migrate applies every migration newer than the recorded schema version,
// each in its own transaction. A database written by a newer build is rejected.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if current > ExpectedSchemaVersion {
		return fmt.Errorf("%w: database schema version %d is newer than supported version %d",
			common.ErrStorageFailure, current, ExpectedSchemaVersion)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return err
		}
		slog.Info("Applied migration", "version", m.version, "description", m.description)
	}

	return nil
}

func (s *SQLiteStorage) apply(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapStorageError("begin migration", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range m.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return wrapStorageError(fmt.Sprintf("migration %d", m.version), err)
		}
	}

	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return wrapStorageError("set schema version", err)
	}

	if err := tx.Commit(); err != nil {
		return wrapStorageError(fmt.Sprintf("commit migration %d", m.version), err)
	}
	return nil
}
