// Package aggregate computes grouped, period-bucketed totals over a tenant's transactions.
package aggregate

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/period"
)

// UnspecifiedGroup labels transactions that have no value for the grouping dimension.
const UnspecifiedGroup = "(unspecified)"

// KindFilter restricts an analysis to one side of the ledger.
type KindFilter int

const (
	// AllKinds includes every transaction.
	AllKinds KindFilter = iota
	// ExpenseOnly keeps transactions in expense categories.
	ExpenseOnly
	// IncomeOnly keeps transactions in income categories.
	IncomeOnly
)

// CategoryIndex maps category ids to categories for kind and label lookups.
type CategoryIndex map[int64]model.Category

// NewCategoryIndex indexes categories by id.
func NewCategoryIndex(categories []model.Category) CategoryIndex {
	idx := make(CategoryIndex, len(categories))
	for _, c := range categories {
		idx[c.ID] = c
	}
	return idx
}

// Kind returns the kind of the transaction's category, or false if the
// category no longer exists.
func (idx CategoryIndex) Kind(txn model.Transaction) (model.CategoryKind, bool) {
	c, ok := idx[txn.CategoryID]
	return c.Kind, ok
}

// Label returns the category name, or model.UnknownCategory if it was deleted.
func (idx CategoryIndex) Label(id int64) string {
	if c, ok := idx[id]; ok {
		return c.Name
	}
	return model.UnknownCategory
}

// GroupKey identifies a group within a bucket.
type GroupKey struct {
	Value       string
	CategoryID  int64
	Unspecified bool
}

func (k GroupKey) compare(other GroupKey) int {
	if k.Unspecified != other.Unspecified {
		if k.Unspecified {
			return 1
		}
		return -1
	}
	if c := cmp.Compare(k.CategoryID, other.CategoryID); c != 0 {
		return c
	}
	return cmp.Compare(k.Value, other.Value)
}

type accessor func(model.Transaction) GroupKey

func textKey(value string) GroupKey {
	if value == "" {
		return GroupKey{Unspecified: true}
	}
	return GroupKey{Value: value}
}

// accessors holds one accessor per grouping dimension.
var accessors = map[model.GroupBy]accessor{
	model.GroupByCategory: func(t model.Transaction) GroupKey { return GroupKey{CategoryID: t.CategoryID} },
	model.GroupByMerchant: func(t model.Transaction) GroupKey { return textKey(t.Merchant) },
	model.GroupByAccount:  func(t model.Transaction) GroupKey { return textKey(t.Account) },
	model.GroupByProject:  func(t model.Transaction) GroupKey { return textKey(t.Project) },
}

// Request selects how transactions are grouped, bucketed and filtered.
type Request struct {
	GroupBy model.GroupBy
	Period  model.Period
	Kinds   KindFilter
}

// Record is one (bucket, group) total. Bucket fields that do not apply to
// the period are omitted.
type Record struct {
	Group      string          `json:"group"`
	CategoryID *int64          `json:"category_id,omitempty"`
	Total      decimal.Decimal `json:"total"`
	Date       *model.Date     `json:"date,omitempty"`
	Year       int             `json:"year"`
	Month      int             `json:"month,omitempty"`
	Week       int             `json:"week,omitempty"`
}

type cell struct {
	bucket period.Bucket
	group  GroupKey
	total  decimal.Decimal
}

// Analyze sums transaction amounts per (bucket, group). The result is ordered
// by bucket ascending, then by group: category id ascending or values
// lexicographically, with the unspecified group last.
func Analyze(txns []model.Transaction, idx CategoryIndex, req Request) ([]Record, error) {
	groupOf, ok := accessors[req.GroupBy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidGroupBy, req.GroupBy)
	}
	if !slices.Contains(model.Periods, req.Period) {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidPeriod, req.Period)
	}

	cells := make(map[string]*cell)
	for _, txn := range txns {
		if !req.Kinds.keep(idx, txn) {
			continue
		}

		bucket := period.BucketOf(txn.OccurredOn, req.Period)
		group := groupOf(txn)
		key := fmt.Sprintf("%s|%t|%d|%s", bucket.Key(), group.Unspecified, group.CategoryID, group.Value)

		c, exists := cells[key]
		if !exists {
			c = &cell{bucket: bucket, group: group, total: decimal.Zero}
			cells[key] = c
		}
		c.total = c.total.Add(txn.Amount)
	}

	ordered := make([]*cell, 0, len(cells))
	for _, c := range cells {
		ordered = append(ordered, c)
	}
	slices.SortFunc(ordered, func(a, b *cell) int {
		if c := a.bucket.Compare(b.bucket); c != 0 {
			return c
		}
		return a.group.compare(b.group)
	})

	records := make([]Record, 0, len(ordered))
	for _, c := range ordered {
		records = append(records, newRecord(c, req.GroupBy, idx))
	}
	return records, nil
}

func newRecord(c *cell, groupBy model.GroupBy, idx CategoryIndex) Record {
	r := Record{
		Total: c.total,
		Year:  c.bucket.Year,
		Month: c.bucket.Month,
		Week:  c.bucket.Week,
		Date:  c.bucket.Date,
	}

	switch {
	case groupBy == model.GroupByCategory:
		id := c.group.CategoryID
		r.CategoryID = &id
		r.Group = idx.Label(id)
	case c.group.Unspecified:
		r.Group = UnspecifiedGroup
	default:
		r.Group = c.group.Value
	}
	return r
}

func (f KindFilter) keep(idx CategoryIndex, txn model.Transaction) bool {
	if f == AllKinds {
		return true
	}
	kind, ok := idx.Kind(txn)
	if !ok {
		return false
	}
	if f == ExpenseOnly {
		return kind == model.KindExpense
	}
	return kind == model.KindIncome
}

// Summary is the income/expense total over a window.
type Summary struct {
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Balance      decimal.Decimal `json:"balance"`
}

// Summarize totals income and expense exactly. Transactions whose category
// was deleted carry no kind and are left out.
func Summarize(txns []model.Transaction, idx CategoryIndex) Summary {
	income, expense := decimal.Zero, decimal.Zero
	for _, txn := range txns {
		kind, ok := idx.Kind(txn)
		if !ok {
			continue
		}
		switch kind {
		case model.KindIncome:
			income = income.Add(txn.Amount)
		case model.KindExpense:
			expense = expense.Add(txn.Amount)
		}
	}
	return Summary{
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      income.Sub(expense),
	}
}
