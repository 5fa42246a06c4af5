// Package ledger is the service boundary over the ledger store: tenant
// bootstrap, category and transaction management, reports, and bulk transfer.
package ledger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/period"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// DefaultCurrency is reported when no currency is configured.
const DefaultCurrency = "THB"

// Service implements the ledger operations on top of a Storage.
type Service struct {
	store    service.Storage
	resolver *period.Resolver
	currency string
	seeds    []model.CategorySeed
	retry    common.RetryOptions
}

// Option configures a Service.
type Option func(*Service)

// WithCurrency sets the currency code reported with summaries.
func WithCurrency(code string) Option {
	return func(s *Service) {
		if code != "" {
			s.currency = strings.ToUpper(code)
		}
	}
}

// WithDefaultCategories replaces the category set seeded for new tenants.
func WithDefaultCategories(seeds []model.CategorySeed) Option {
	return func(s *Service) {
		if len(seeds) > 0 {
			s.seeds = seeds
		}
	}
}

// WithRetryOptions configures how conflicting imports are retried.
func WithRetryOptions(opts common.RetryOptions) Option {
	return func(s *Service) {
		s.retry = opts
	}
}

// New creates a ledger service.
func New(store service.Storage, resolver *period.Resolver, opts ...Option) *Service {
	s := &Service{
		store:    store,
		resolver: resolver,
		currency: DefaultCurrency,
		seeds:    model.DefaultCategorySeeds(),
		retry: common.RetryOptions{
			MaxAttempts:  5,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2.0,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current date in the configured timezone.
func (s *Service) Today() model.Date {
	return s.resolver.Today()
}

// CreateTenant registers a tenant and seeds its default categories in one
// transaction.
func (s *Service) CreateTenant(ctx context.Context, name string) (*model.Tenant, []model.Category, error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	tenant, err := tx.CreateTenant(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	created, err := seedCategories(ctx, tx, tenant.ID, s.seeds)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	slog.Info("bootstrapped tenant", "tenant", tenant.Name, "id", tenant.ID, "categories", len(created))
	return tenant, created, nil
}

// SeedDefaultCategories creates any configured default category the tenant
// does not already have by name.
func (s *Service) SeedDefaultCategories(ctx context.Context, tenantID string) ([]model.Category, error) {
	if err := s.requireTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	created, err := seedCategories(ctx, tx, tenantID, s.seeds)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

func seedCategories(ctx context.Context, tx service.Transaction, tenantID string, seeds []model.CategorySeed) ([]model.Category, error) {
	var created []model.Category
	for _, seed := range seeds {
		existing, err := tx.FindCategoryByName(ctx, tenantID, seed.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}

		kind := seed.Kind
		if kind == "" {
			kind = model.KindExpense
		}
		category, err := tx.CreateCategory(ctx, tenantID, seed.Name, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to seed category %q: %w", seed.Name, err)
		}
		created = append(created, *category)
	}
	return created, nil
}

// ResolveTenant finds a tenant by id, falling back to name.
func (s *Service) ResolveTenant(ctx context.Context, ref string) (*model.Tenant, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: tenant", common.ErrMissingField)
	}

	tenant, err := s.store.GetTenant(ctx, ref)
	if err == nil {
		return tenant, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	return s.store.GetTenantByName(ctx, ref)
}

// ListTenants returns all tenants.
func (s *Service) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	return s.store.ListTenants(ctx)
}

func (s *Service) requireTenant(ctx context.Context, tenantID string) error {
	_, err := s.store.GetTenant(ctx, tenantID)
	return err
}

// ListCategories returns the tenant's categories ordered by id.
func (s *Service) ListCategories(ctx context.Context, tenantID string) ([]model.Category, error) {
	if err := s.requireTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.store.ListCategories(ctx, tenantID)
}

// CreateCategory adds a category to the tenant.
func (s *Service) CreateCategory(ctx context.Context, tenantID, name string, kind model.CategoryKind) (*model.Category, error) {
	return s.store.CreateCategory(ctx, tenantID, name, kind)
}

// UpdateCategory applies a partial edit to a category.
func (s *Service) UpdateCategory(ctx context.Context, tenantID string, id int64, patch model.CategoryPatch) (*model.Category, error) {
	return s.store.UpdateCategory(ctx, tenantID, id, patch)
}

// DeleteCategory removes a category. Its transactions remain and are reported
// under model.UnknownCategory.
func (s *Service) DeleteCategory(ctx context.Context, tenantID string, id int64) error {
	if err := s.store.DeleteCategory(ctx, tenantID, id); err != nil {
		return err
	}
	slog.Info("deleted category", "tenant", tenantID, "id", id)
	return nil
}

// ListTransactions returns the tenant's transactions within the optional
// inclusive bounds, ordered by date then id.
func (s *Service) ListTransactions(ctx context.Context, tenantID, from, to string) ([]model.Transaction, error) {
	filter, err := parseFilter(from, to)
	if err != nil {
		return nil, err
	}
	if err := s.requireTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	txns, err := s.store.ListTransactions(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	sortTransactions(txns)
	return txns, nil
}

// CreateTransaction records a transaction.
func (s *Service) CreateTransaction(ctx context.Context, tenantID string, input model.TransactionInput) (*model.Transaction, error) {
	if err := s.requireTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.store.CreateTransaction(ctx, tenantID, input)
}

// UpdateTransaction applies a partial edit to a transaction.
func (s *Service) UpdateTransaction(ctx context.Context, tenantID string, id int64, patch model.TransactionPatch) (*model.Transaction, error) {
	return s.store.UpdateTransaction(ctx, tenantID, id, patch)
}

// DeleteTransaction removes a transaction.
func (s *Service) DeleteTransaction(ctx context.Context, tenantID string, id int64) error {
	return s.store.DeleteTransaction(ctx, tenantID, id)
}

// parseFilter parses optional YYYY-MM-DD bounds. Either side may be empty.
func parseFilter(from, to string) (service.TransactionFilter, error) {
	start, err := model.ParseOptionalDate(from)
	if err != nil {
		return service.TransactionFilter{}, err
	}
	end, err := model.ParseOptionalDate(to)
	if err != nil {
		return service.TransactionFilter{}, err
	}
	if start != nil && end != nil {
		if _, err := period.Explicit(*start, *end); err != nil {
			return service.TransactionFilter{}, err
		}
	}
	return service.TransactionFilter{StartDate: start, EndDate: end}, nil
}

func sortTransactions(txns []model.Transaction) {
	slices.SortFunc(txns, func(a, b model.Transaction) int {
		if c := a.OccurredOn.Compare(b.OccurredOn); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
