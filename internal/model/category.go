package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// CategoryKind indicates whether a category records income or expenses.
type CategoryKind string

const (
	// KindExpense marks categories whose transactions are outflows.
	KindExpense CategoryKind = "expense"
	// KindIncome marks categories whose transactions are inflows.
	KindIncome CategoryKind = "income"
)

// ParseCategoryKind parses "expense" or "income" case-insensitively.
// An empty string yields the default, KindExpense.
func ParseCategoryKind(s string) (CategoryKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(KindExpense):
		return KindExpense, nil
	case string(KindIncome):
		return KindIncome, nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrInvalidKind, s)
	}
}

// Valid reports whether k is one of the known kinds.
func (k CategoryKind) Valid() bool {
	return k == KindExpense || k == KindIncome
}

// Category is a named grouping of a tenant's transactions with a fixed kind.
type Category struct {
	CreatedAt time.Time    `json:"created_at"`
	TenantID  string       `json:"tenant_id"`
	Name      string       `json:"name"`
	Kind      CategoryKind `json:"type"`
	ID        int64        `json:"id"`
}

// CategoryPatch carries a partial category edit. Nil fields are left unchanged.
type CategoryPatch struct {
	Name *string
	Kind *CategoryKind
}

// CategorySeed describes a category created when a tenant is bootstrapped.
type CategorySeed struct {
	Name string       `mapstructure:"name" yaml:"name"`
	Kind CategoryKind `mapstructure:"kind" yaml:"kind"`
}

// DefaultCategorySeeds returns the category set seeded for new tenants when the
// deployment does not configure its own.
func DefaultCategorySeeds() []CategorySeed {
	return []CategorySeed{
		{Name: "Food", Kind: KindExpense},
		{Name: "Transport", Kind: KindExpense},
		{Name: "Housing", Kind: KindExpense},
		{Name: "Investment", Kind: KindExpense},
		{Name: "Miscellaneous", Kind: KindExpense},
		{Name: "Other", Kind: KindExpense},
		{Name: "Flower Sales", Kind: KindIncome},
		{Name: "Bonus", Kind: KindIncome},
	}
}
