// Package service defines the interfaces shared between the ledger and its collaborators.
package service

import (
	"context"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
// Both bounds are inclusive; nil leaves that side open.
type TransactionFilter struct {
	StartDate *model.Date
	EndDate   *model.Date
}

// Storage defines the contract for our persistence layer. Every tenant-scoped
// operation treats rows owned by another tenant as absent.
type Storage interface {
	// Tenant operations
	CreateTenant(ctx context.Context, name string) (*model.Tenant, error)
	GetTenant(ctx context.Context, id string) (*model.Tenant, error)
	GetTenantByName(ctx context.Context, name string) (*model.Tenant, error)
	ListTenants(ctx context.Context) ([]model.Tenant, error)

	// Category operations
	CreateCategory(ctx context.Context, tenantID, name string, kind model.CategoryKind) (*model.Category, error)
	GetCategory(ctx context.Context, tenantID string, id int64) (*model.Category, error)
	FindCategoryByName(ctx context.Context, tenantID, name string) (*model.Category, error)
	ListCategories(ctx context.Context, tenantID string) ([]model.Category, error)
	UpdateCategory(ctx context.Context, tenantID string, id int64, patch model.CategoryPatch) (*model.Category, error)
	DeleteCategory(ctx context.Context, tenantID string, id int64) error

	// Transaction operations
	CreateTransaction(ctx context.Context, tenantID string, input model.TransactionInput) (*model.Transaction, error)
	GetTransaction(ctx context.Context, tenantID string, id int64) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, tenantID string, id int64, patch model.TransactionPatch) (*model.Transaction, error)
	DeleteTransaction(ctx context.Context, tenantID string, id int64) error
	ListTransactions(ctx context.Context, tenantID string, filter TransactionFilter) ([]model.Transaction, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}
