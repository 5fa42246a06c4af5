package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

const categoryColumns = `id, tenant_id, name, kind, created_at`

// CreateCategory creates a category for the tenant. Duplicate names are allowed.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, tenantID, name string, kind model.CategoryKind) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var category *model.Category
	err := s.withTx(ctx, "create category", func(q queryable) error {
		var err error
		category, err = createCategory(ctx, q, tenantID, name, kind)
		return err
	})
	return category, err
}

func createCategory(ctx context.Context, q queryable, tenantID, name string, kind model.CategoryKind) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	if err := validateKind(kind); err != nil {
		return nil, err
	}
	if err := requireTenant(ctx, q, tenantID); err != nil {
		return nil, err
	}

	category := &model.Category{
		TenantID:  tenantID,
		Name:      name,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO categories (tenant_id, name, kind, created_at) VALUES (?, ?, ?, ?)`,
		category.TenantID, category.Name, string(category.Kind), category.CreatedAt,
	)
	if err != nil {
		return nil, wrapStorageError("create category", err)
	}

	category.ID, err = result.LastInsertId()
	if err != nil {
		return nil, wrapStorageError("get category id", err)
	}

	slog.Info("created new category", "tenant", tenantID, "name", category.Name, "kind", category.Kind, "id", category.ID)
	return category, nil
}

// GetCategory returns a category owned by the tenant.
func (s *SQLiteStorage) GetCategory(ctx context.Context, tenantID string, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getCategory(ctx, s.db, tenantID, id)
}

func getCategory(ctx context.Context, q queryable, tenantID string, id int64) (*model.Category, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE tenant_id = ? AND id = ?`,
		tenantID, id)

	category, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, wrapStorageError("get category", err)
	}
	return category, nil
}

// FindCategoryByName returns the tenant's lowest-id category with exactly this
// name, or nil when there is none.
func (s *SQLiteStorage) FindCategoryByName(ctx context.Context, tenantID, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return findCategoryByName(ctx, s.db, tenantID, name)
}

func findCategoryByName(ctx context.Context, q queryable, tenantID, name string) (*model.Category, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories
		WHERE tenant_id = ? AND name = ?
		ORDER BY id
		LIMIT 1`,
		tenantID, strings.TrimSpace(name))

	category, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStorageError("find category", err)
	}
	return category, nil
}

// ListCategories returns the tenant's categories ordered by id.
func (s *SQLiteStorage) ListCategories(ctx context.Context, tenantID string) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listCategories(ctx, s.db, tenantID)
}

func listCategories(ctx context.Context, q queryable, tenantID string) ([]model.Category, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE tenant_id = ? ORDER BY id`,
		tenantID)
	if err != nil {
		return nil, wrapStorageError("query categories", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, wrapStorageError("scan category", err)
		}
		categories = append(categories, *category)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorageError("iterate categories", err)
	}

	slog.Debug("retrieved categories", "tenant", tenantID, "count", len(categories))
	return categories, nil
}

// UpdateCategory applies a partial edit to a category owned by the tenant.
func (s *SQLiteStorage) UpdateCategory(ctx context.Context, tenantID string, id int64, patch model.CategoryPatch) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var category *model.Category
	err := s.withTx(ctx, "update category", func(q queryable) error {
		var err error
		category, err = updateCategory(ctx, q, tenantID, id, patch)
		return err
	})
	return category, err
}

func updateCategory(ctx context.Context, q queryable, tenantID string, id int64, patch model.CategoryPatch) (*model.Category, error) {
	category, err := getCategory(ctx, q, tenantID, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if err := validateCategoryName(name); err != nil {
			return nil, err
		}
		category.Name = name
	}
	if patch.Kind != nil {
		if err := validateKind(*patch.Kind); err != nil {
			return nil, err
		}
		category.Kind = *patch.Kind
	}

	_, err = q.ExecContext(ctx,
		`UPDATE categories SET name = ?, kind = ? WHERE tenant_id = ? AND id = ?`,
		category.Name, string(category.Kind), tenantID, id)
	if err != nil {
		return nil, wrapStorageError("update category", err)
	}

	return category, nil
}

// DeleteCategory removes a category. Transactions referencing it are kept.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, tenantID string, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return deleteCategory(ctx, s.db, tenantID, id)
}

func deleteCategory(ctx context.Context, q queryable, tenantID string, id int64) error {
	result, err := q.ExecContext(ctx,
		`DELETE FROM categories WHERE tenant_id = ? AND id = ?`, tenantID, id)
	if err != nil {
		return wrapStorageError("delete category", err)
	}
	return requireAffected(result, fmt.Sprintf("category %d", id))
}

// categoryOwned fails with ErrInvalidCategory unless the category belongs to the tenant.
func categoryOwned(ctx context.Context, q queryable, tenantID string, id int64) error {
	var exists int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM categories WHERE tenant_id = ? AND id = ?`, tenantID, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %d", common.ErrInvalidCategory, id)
	}
	if err != nil {
		return wrapStorageError("check category", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*model.Category, error) {
	var category model.Category
	var kind string
	if err := row.Scan(&category.ID, &category.TenantID, &category.Name, &kind, &category.CreatedAt); err != nil {
		return nil, err
	}
	category.Kind = model.CategoryKind(kind)
	return &category, nil
}

func requireAffected(result sql.Result, ref string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return wrapStorageError("check rows affected", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", ref, common.ErrNotFound)
	}
	return nil
}
