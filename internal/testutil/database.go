// Package testutil provides test utilities for the ledger: isolated SQLite
// databases with a seeded tenant and categories.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/storage"
	"github.com/Veraticus/spice-ledger/internal/testutil/categories"
)

// TestTenantName is the name of the tenant every TestDB starts with.
const TestTenantName = "test-tenant"

// TestDB represents a test database with a tenant and its categories.
type TestDB struct {
	Storage    *storage.SQLiteStorage
	Tenant     *model.Tenant
	t          *testing.T
	Categories categories.Categories
}

// SetupTestDB creates a migrated database in the test's temp dir holding one
// tenant. It is closed automatically when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	tenant, err := store.CreateTenant(ctx, TestTenantName)
	if err != nil {
		t.Fatalf("failed to create tenant: %v", err)
	}

	return &TestDB{
		Storage: store,
		Tenant:  tenant,
		t:       t,
	}
}

// SetupTestDBWithBuilder creates a test database and seeds the tenant with
// the categories configured on the builder.
//
// Example:
//
//	db := testutil.SetupTestDBWithBuilder(t, func(b *categories.Builder) *categories.Builder {
//		return b.WithFixture(categories.FixtureStandard)
//	})
func SetupTestDBWithBuilder(t *testing.T, configure func(*categories.Builder) *categories.Builder) *TestDB {
	t.Helper()

	db := SetupTestDB(t)

	builder := categories.NewBuilder(t)
	if configure != nil {
		builder = configure(builder)
	}

	cats, err := builder.Build(context.Background(), db.Storage, db.Tenant.ID)
	if err != nil {
		t.Fatalf("failed to build categories: %v", err)
	}
	db.Categories = cats

	return db
}

// AddTenant creates another tenant in the same database.
func (db *TestDB) AddTenant(name string) *model.Tenant {
	db.t.Helper()
	tenant, err := db.Storage.CreateTenant(context.Background(), name)
	if err != nil {
		db.t.Fatalf("failed to create tenant %q: %v", name, err)
	}
	return tenant
}

// MustCategoryID returns the id of the named seeded category or fails the test.
func (db *TestDB) MustCategoryID(name categories.CategoryName) int64 {
	db.t.Helper()
	return db.Categories.MustFind(db.t, name).ID
}
