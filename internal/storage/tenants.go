package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// CreateTenant registers a tenant under a fresh UUID.
func (s *SQLiteStorage) CreateTenant(ctx context.Context, name string) (*model.Tenant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return createTenant(ctx, s.db, name)
}

func createTenant(ctx context.Context, q queryable, name string) (*model.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: tenant name", common.ErrMissingField)
	}

	existing, err := getTenantByName(ctx, q, name)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: tenant %q already exists", common.ErrConflict, name)
	}

	tenant := &model.Tenant{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO tenants (id, name, created_at) VALUES (?, ?, ?)`,
		tenant.ID, tenant.Name, tenant.CreatedAt,
	)
	if err != nil {
		return nil, wrapStorageError("create tenant", err)
	}

	slog.Info("created tenant", "name", tenant.Name, "id", tenant.ID)
	return tenant, nil
}

// GetTenant returns the tenant with the given id.
func (s *SQLiteStorage) GetTenant(ctx context.Context, id string) (*model.Tenant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getTenant(ctx, s.db, id)
}

func getTenant(ctx context.Context, q queryable, id string) (*model.Tenant, error) {
	return scanTenant(q.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM tenants WHERE id = ?`, id), "id "+id)
}

// GetTenantByName returns the tenant with the given name.
func (s *SQLiteStorage) GetTenantByName(ctx context.Context, name string) (*model.Tenant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getTenantByName(ctx, s.db, name)
}

func getTenantByName(ctx context.Context, q queryable, name string) (*model.Tenant, error) {
	return scanTenant(q.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM tenants WHERE name = ?`, strings.TrimSpace(name)), "name "+name)
}

func scanTenant(row *sql.Row, ref string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := row.Scan(&tenant.ID, &tenant.Name, &tenant.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tenant %s: %w", ref, common.ErrNotFound)
	}
	if err != nil {
		return nil, wrapStorageError("get tenant", err)
	}
	return &tenant, nil
}

// ListTenants returns all tenants ordered by name.
func (s *SQLiteStorage) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listTenants(ctx, s.db)
}

func listTenants(ctx context.Context, q queryable) ([]model.Tenant, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, created_at FROM tenants ORDER BY name`)
	if err != nil {
		return nil, wrapStorageError("query tenants", err)
	}
	defer func() { _ = rows.Close() }()

	var tenants []model.Tenant
	for rows.Next() {
		var tenant model.Tenant
		if err := rows.Scan(&tenant.ID, &tenant.Name, &tenant.CreatedAt); err != nil {
			return nil, wrapStorageError("scan tenant", err)
		}
		tenants = append(tenants, tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorageError("iterate tenants", err)
	}
	return tenants, nil
}

// requireTenant fails with ErrNotFound when the tenant does not exist.
func requireTenant(ctx context.Context, q queryable, tenantID string) error {
	var exists int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM tenants WHERE id = ?`, tenantID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("tenant %s: %w", tenantID, common.ErrNotFound)
	}
	if err != nil {
		return wrapStorageError("check tenant", err)
	}
	return nil
}
