package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// Transaction is a single recorded expense or income entry. Amount is unsigned;
// its direction comes from the referenced category's kind.
type Transaction struct {
	OccurredOn Date            `json:"date"`
	CreatedAt  time.Time       `json:"created_at"`
	Amount     decimal.Decimal `json:"amount"`
	TenantID   string          `json:"tenant_id"`
	Merchant   string          `json:"merchant,omitempty"`
	Account    string          `json:"account,omitempty"`
	Project    string          `json:"project,omitempty"`
	Tags       string          `json:"tags,omitempty"`
	Note       string          `json:"note,omitempty"`
	ID         int64           `json:"id"`
	CategoryID int64           `json:"category_id"`
}

// TransactionInput holds the fields of a new transaction.
type TransactionInput struct {
	OccurredOn Date
	Amount     decimal.Decimal
	Merchant   string
	Account    string
	Project    string
	Tags       string
	Note       string
	CategoryID int64
}

// TransactionPatch carries a partial transaction edit. Nil fields are left unchanged.
// OccurredOn is raw YYYY-MM-DD text and is validated when applied.
type TransactionPatch struct {
	CategoryID *int64
	Amount     *decimal.Decimal
	OccurredOn *string
	Merchant   *string
	Account    *string
	Project    *string
	Tags       *string
	Note       *string
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.CategoryID == nil && p.Amount == nil && p.OccurredOn == nil &&
		p.Merchant == nil && p.Account == nil && p.Project == nil &&
		p.Tags == nil && p.Note == nil
}

// ValidateAmount requires a strictly positive amount.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s must be greater than zero", common.ErrInvalidAmount, amount.String())
	}
	return nil
}

// ParseAmount parses a decimal amount such as "12.50" and validates it.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: empty amount", common.ErrInvalidAmount)
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", common.ErrInvalidAmount, s)
	}
	if err := ValidateAmount(amount); err != nil {
		return decimal.Decimal{}, err
	}
	return amount, nil
}
