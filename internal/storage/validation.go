// Package storage provides the SQLite persistence layer for the ledger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// Validation errors.
var (
	ErrNilContext  = errors.New("context cannot be nil")
	ErrEmptyString = fmt.Errorf("%w: string parameter cannot be empty", common.ErrInvalidInput)
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateCategoryName rejects blank category names.
func validateCategoryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: category name", common.ErrMissingField)
	}
	return nil
}

// validateKind rejects kinds other than expense and income.
func validateKind(kind model.CategoryKind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", common.ErrInvalidKind, kind)
	}
	return nil
}

// validateTransactionInput checks the fields of a new transaction.
func validateTransactionInput(input model.TransactionInput) error {
	if input.OccurredOn.IsZero() {
		return fmt.Errorf("%w: date", common.ErrMissingField)
	}
	return model.ValidateAmount(input.Amount)
}

// validateFilter rejects inverted ranges.
func validateFilter(filter service.TransactionFilter) error {
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.Compare(*filter.EndDate) > 0 {
		return fmt.Errorf("%w: %s is after %s", common.ErrInvalidRange, filter.StartDate, filter.EndDate)
	}
	return nil
}
