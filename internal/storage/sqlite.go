package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// connParams configures every connection: WAL journaling, a busy timeout before
// SQLITE_BUSY surfaces, BEGIN IMMEDIATE for write transactions, and foreign keys.
const connParams = "?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate&_foreign_keys=on"

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+connParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writers inside the process; other
	// processes are serialized by the database lock.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Path returns the database file location.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new write transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapStorageError("begin transaction", err)
	}

	return &sqliteTransaction{
		tx:      tx,
		storage: s,
	}, nil
}

// withTx runs fn inside a write transaction, committing on success.
func (s *SQLiteStorage) withTx(ctx context.Context, op string, fn func(q queryable) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapStorageError(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrapStorageError(op, err)
	}
	return nil
}

// wrapStorageError classifies a driver error. Lock contention becomes a
// conflict, cancellation passes through, anything else is a storage failure.
func wrapStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked {
			return fmt.Errorf("failed to %s: %w: %w", op, common.ErrConflict, err)
		}
	}
	return fmt.Errorf("failed to %s: %w: %w", op, common.ErrStorageFailure, err)
}

// queryable is an interface satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// sqliteTransaction wraps sql.Tx to implement service.Transaction.
type sqliteTransaction struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTransaction) Commit() error {
	return wrapStorageError("commit transaction", t.tx.Commit())
}

func (t *sqliteTransaction) Rollback() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return wrapStorageError("roll back transaction", err)
}

func (t *sqliteTransaction) Migrate(_ context.Context) error {
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *sqliteTransaction) BeginTx(_ context.Context) (service.Transaction, error) {
	return nil, fmt.Errorf("nested transactions are not supported")
}

func (t *sqliteTransaction) Close() error {
	return fmt.Errorf("cannot close storage from within a transaction")
}

// Transaction methods delegate to the storage helpers with the transaction as queryable.

func (t *sqliteTransaction) CreateTenant(ctx context.Context, name string) (*model.Tenant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return createTenant(ctx, t.tx, name)
}

func (t *sqliteTransaction) GetTenant(ctx context.Context, id string) (*model.Tenant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getTenant(ctx, t.tx, id)
}

func (t *sqliteTransaction) GetTenantByName(ctx context.Context, name string) (*model.Tenant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getTenantByName(ctx, t.tx, name)
}

func (t *sqliteTransaction) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listTenants(ctx, t.tx)
}

func (t *sqliteTransaction) CreateCategory(ctx context.Context, tenantID, name string, kind model.CategoryKind) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return createCategory(ctx, t.tx, tenantID, name, kind)
}

func (t *sqliteTransaction) GetCategory(ctx context.Context, tenantID string, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getCategory(ctx, t.tx, tenantID, id)
}

func (t *sqliteTransaction) FindCategoryByName(ctx context.Context, tenantID, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return findCategoryByName(ctx, t.tx, tenantID, name)
}

func (t *sqliteTransaction) ListCategories(ctx context.Context, tenantID string) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listCategories(ctx, t.tx, tenantID)
}

func (t *sqliteTransaction) UpdateCategory(ctx context.Context, tenantID string, id int64, patch model.CategoryPatch) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return updateCategory(ctx, t.tx, tenantID, id, patch)
}

func (t *sqliteTransaction) DeleteCategory(ctx context.Context, tenantID string, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return deleteCategory(ctx, t.tx, tenantID, id)
}

func (t *sqliteTransaction) CreateTransaction(ctx context.Context, tenantID string, input model.TransactionInput) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return createTransaction(ctx, t.tx, tenantID, input)
}

func (t *sqliteTransaction) GetTransaction(ctx context.Context, tenantID string, id int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getTransaction(ctx, t.tx, tenantID, id)
}

func (t *sqliteTransaction) UpdateTransaction(ctx context.Context, tenantID string, id int64, patch model.TransactionPatch) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return updateTransaction(ctx, t.tx, tenantID, id, patch)
}

func (t *sqliteTransaction) DeleteTransaction(ctx context.Context, tenantID string, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return deleteTransaction(ctx, t.tx, tenantID, id)
}

func (t *sqliteTransaction) ListTransactions(ctx context.Context, tenantID string, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listTransactions(ctx, t.tx, tenantID, filter)
}
