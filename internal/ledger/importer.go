package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// ImportResult reports what a successful import changed.
type ImportResult struct {
	CreatedCategories []model.Category
	Imported          int
}

// ImportOption configures a single import.
type ImportOption func(*importConfig)

type importConfig struct {
	progress func(done, total int)
}

// WithProgress registers a callback invoked after each applied row.
func WithProgress(fn func(done, total int)) ImportOption {
	return func(c *importConfig) {
		c.progress = fn
	}
}

type importRow struct {
	category string
	kind     model.CategoryKind
	input    model.TransactionInput
}

// ImportRows loads rows into the tenant's ledger. Every row is validated
// before anything is written, then all rows are applied in input order inside
// one store transaction: categories are resolved by exact name or created
// with the row's type. Any failure leaves the ledger unchanged.
func (s *Service) ImportRows(ctx context.Context, tenantID string, rows []model.ImportRow, opts ...ImportOption) (*ImportResult, error) {
	cfg := importConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	parsed, err := validateRows(rows)
	if err != nil {
		return nil, err
	}
	if err := s.requireTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	slog.Info("starting import", "run_id", runID, "tenant", tenantID, "rows", len(parsed))

	// Only lock contention is worth another attempt; each attempt re-resolves
	// categories against what is committed by then.
	retry := s.retry
	retry.Retryable = func(err error) bool { return errors.Is(err, common.ErrConflict) }

	var result *ImportResult
	attempt := 0
	err = common.WithRetry(ctx, func() error {
		attempt++
		res, applyErr := s.applyImport(ctx, tenantID, parsed, cfg)
		if applyErr != nil {
			return applyErr
		}
		result = res
		return nil
	}, retry)
	if err != nil {
		slog.Warn("import rolled back", "run_id", runID, "tenant", tenantID, "attempts", attempt, "error", err)
		return nil, err
	}

	slog.Info("import committed",
		"run_id", runID,
		"tenant", tenantID,
		"imported", result.Imported,
		"created_categories", len(result.CreatedCategories),
		"attempts", attempt)
	return result, nil
}

func (s *Service) applyImport(ctx context.Context, tenantID string, rows []importRow, cfg importConfig) (*ImportResult, error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	resolved := make(map[string]int64)
	result := &ImportResult{}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		categoryID, created, err := resolveCategory(ctx, tx, tenantID, row, resolved)
		if err != nil {
			return nil, &common.ImportError{Row: i + 1, Field: "category", Err: err}
		}
		if created != nil {
			result.CreatedCategories = append(result.CreatedCategories, *created)
		}

		input := row.input
		input.CategoryID = categoryID
		if _, err := tx.CreateTransaction(ctx, tenantID, input); err != nil {
			return nil, &common.ImportError{Row: i + 1, Err: err}
		}

		result.Imported++
		if cfg.progress != nil {
			cfg.progress(i+1, len(rows))
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

// resolveCategory returns the id of the first category named row.category,
// creating it with the row's kind when none exists. Names created earlier in
// the batch are reused.
func resolveCategory(ctx context.Context, tx service.Transaction, tenantID string, row importRow, resolved map[string]int64) (int64, *model.Category, error) {
	if id, ok := resolved[row.category]; ok {
		return id, nil, nil
	}

	existing, err := tx.FindCategoryByName(ctx, tenantID, row.category)
	if err != nil {
		return 0, nil, err
	}
	if existing != nil {
		resolved[row.category] = existing.ID
		return existing.ID, nil, nil
	}

	created, err := tx.CreateCategory(ctx, tenantID, row.category, row.kind)
	if err != nil {
		return 0, nil, err
	}
	resolved[row.category] = created.ID
	return created.ID, created, nil
}

// validateRows checks every row, reporting the first failure with its 1-based
// row number and field.
func validateRows(rows []model.ImportRow) ([]importRow, error) {
	parsed := make([]importRow, 0, len(rows))
	for i, row := range rows {
		p, field, err := validateRow(row)
		if err != nil {
			return nil, &common.ImportError{Row: i + 1, Field: field, Err: err}
		}
		parsed = append(parsed, p)
	}
	return parsed, nil
}

func validateRow(row model.ImportRow) (importRow, string, error) {
	category := strings.TrimSpace(row.Category)
	for _, required := range []struct {
		field string
		value string
	}{
		{field: "category", value: category},
		{field: "amount", value: row.Amount},
		{field: "date", value: row.Date},
	} {
		if strings.TrimSpace(required.value) == "" {
			return importRow{}, required.field, fmt.Errorf("%w: %s", common.ErrMissingField, required.field)
		}
	}

	date, err := model.ParseDate(row.Date)
	if err != nil {
		return importRow{}, "date", err
	}
	amount, err := model.ParseAmount(row.Amount)
	if err != nil {
		return importRow{}, "amount", err
	}
	kind, err := model.ParseCategoryKind(row.Type)
	if err != nil {
		return importRow{}, "type", err
	}

	return importRow{
		category: category,
		kind:     kind,
		input: model.TransactionInput{
			OccurredOn: date,
			Amount:     amount,
			Merchant:   row.Merchant,
			Account:    row.Account,
			Project:    row.Project,
			Tags:       row.Tags,
			Note:       row.Note,
		},
	}, "", nil
}
