package aggregate

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

var (
	food   = model.Category{ID: 1, Name: "Food", Kind: model.KindExpense}
	salary = model.Category{ID: 2, Name: "Salary", Kind: model.KindIncome}
	travel = model.Category{ID: 3, Name: "Travel", Kind: model.KindExpense}
)

func txn(id, categoryID int64, amount, date string) model.Transaction {
	d, err := model.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return model.Transaction{
		ID:         id,
		CategoryID: categoryID,
		Amount:     decimal.RequireFromString(amount),
		OccurredOn: d,
	}
}

func withMerchant(t model.Transaction, merchant string) model.Transaction {
	t.Merchant = merchant
	return t
}

func TestAnalyze_ByCategoryMonthly(t *testing.T) {
	idx := NewCategoryIndex([]model.Category{food, salary, travel})
	txns := []model.Transaction{
		txn(1, travel.ID, "300", "2024-02-03"),
		txn(2, food.ID, "100", "2024-01-05"),
		txn(3, salary.ID, "1000", "2024-01-25"),
		txn(4, food.ID, "50.25", "2024-01-20"),
		txn(5, food.ID, "10", "2024-02-01"),
	}

	records, err := Analyze(txns, idx, Request{GroupBy: model.GroupByCategory, Period: model.PeriodMonthly})
	require.NoError(t, err)
	require.Len(t, records, 4)

	type row struct {
		group string
		total string
		month int
	}
	var got []row
	for _, r := range records {
		got = append(got, row{group: r.Group, total: r.Total.String(), month: r.Month})
		assert.Equal(t, 2024, r.Year)
		require.NotNil(t, r.CategoryID)
	}
	assert.Equal(t, []row{
		{group: "Food", total: "150.25", month: 1},
		{group: "Salary", total: "1000", month: 1},
		{group: "Food", total: "10", month: 2},
		{group: "Travel", total: "300", month: 2},
	}, got)
}

func TestAnalyze_KindFilters(t *testing.T) {
	idx := NewCategoryIndex([]model.Category{food, salary})
	txns := []model.Transaction{
		txn(1, food.ID, "100", "2024-01-05"),
		txn(2, salary.ID, "1000", "2024-01-25"),
		txn(3, 99, "7", "2024-01-26"), // category deleted
	}

	expenses, err := Analyze(txns, idx, Request{GroupBy: model.GroupByCategory, Period: model.PeriodYearly, Kinds: ExpenseOnly})
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "Food", expenses[0].Group)

	income, err := Analyze(txns, idx, Request{GroupBy: model.GroupByCategory, Period: model.PeriodYearly, Kinds: IncomeOnly})
	require.NoError(t, err)
	require.Len(t, income, 1)
	assert.Equal(t, "Salary", income[0].Group)

	all, err := Analyze(txns, idx, Request{GroupBy: model.GroupByCategory, Period: model.PeriodYearly})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, model.UnknownCategory, all[2].Group)
	assert.Equal(t, int64(99), *all[2].CategoryID)
}

func TestAnalyze_UnspecifiedGroupSortsLast(t *testing.T) {
	idx := NewCategoryIndex([]model.Category{food})
	txns := []model.Transaction{
		txn(1, food.ID, "5", "2024-01-01"),
		withMerchant(txn(2, food.ID, "7", "2024-01-01"), "Zeta Mart"),
		withMerchant(txn(3, food.ID, "3", "2024-01-01"), "Alpha Cafe"),
		txn(4, food.ID, "1", "2024-01-01"),
	}

	records, err := Analyze(txns, idx, Request{GroupBy: model.GroupByMerchant, Period: model.PeriodDaily})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Alpha Cafe", records[0].Group)
	assert.Equal(t, "Zeta Mart", records[1].Group)
	assert.Equal(t, UnspecifiedGroup, records[2].Group)
	assert.Equal(t, "6", records[2].Total.String())
	assert.Nil(t, records[2].CategoryID)
	require.NotNil(t, records[2].Date)
	assert.Equal(t, "2024-01-01", records[2].Date.String())
}

func TestAnalyze_ISOWeekBoundary(t *testing.T) {
	idx := NewCategoryIndex([]model.Category{food})
	txns := []model.Transaction{
		txn(1, food.ID, "1", "2018-12-31"),
		txn(2, food.ID, "2", "2019-01-06"),
		txn(3, food.ID, "4", "2018-12-30"),
	}

	records, err := Analyze(txns, idx, Request{GroupBy: model.GroupByCategory, Period: model.PeriodWeekly})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2018, records[0].Year)
	assert.Equal(t, 52, records[0].Week)
	assert.Equal(t, 2019, records[1].Year)
	assert.Equal(t, 1, records[1].Week)
	assert.Equal(t, "3", records[1].Total.String())
}

func TestAnalyze_DeterministicOutput(t *testing.T) {
	idx := NewCategoryIndex([]model.Category{food, salary, travel})
	var txns []model.Transaction
	for i := int64(1); i <= 60; i++ {
		tx := txn(i, []int64{food.ID, salary.ID, travel.ID}[i%3], "1.10", "2024-01-01")
		tx.OccurredOn = tx.OccurredOn.AddDays(int(i * 5))
		if i%4 != 0 {
			tx.Project = []string{"home", "work", "side"}[i%3]
		}
		txns = append(txns, tx)
	}

	req := Request{GroupBy: model.GroupByProject, Period: model.PeriodWeekly}
	first, err := Analyze(txns, idx, req)
	require.NoError(t, err)
	want, err := json.Marshal(first)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := append([]model.Transaction(nil), txns...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		records, err := Analyze(shuffled, idx, req)
		require.NoError(t, err)
		got, err := json.Marshal(records)
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got))
	}
}

func TestAnalyze_RejectsUnknownEnums(t *testing.T) {
	_, err := Analyze(nil, nil, Request{GroupBy: "tags", Period: model.PeriodMonthly})
	assert.ErrorIs(t, err, common.ErrInvalidGroupBy)

	_, err = Analyze(nil, nil, Request{GroupBy: model.GroupByCategory, Period: "hourly"})
	assert.ErrorIs(t, err, common.ErrInvalidPeriod)
}

func TestSummarize(t *testing.T) {
	idx := NewCategoryIndex([]model.Category{food, salary})
	txns := []model.Transaction{
		txn(1, food.ID, "0.10", "2024-01-01"),
		txn(2, food.ID, "0.20", "2024-01-02"),
		txn(3, salary.ID, "1000", "2024-01-03"),
		txn(4, 42, "500", "2024-01-04"), // category deleted
	}

	summary := Summarize(txns, idx)
	assert.Equal(t, "1000", summary.TotalIncome.String())
	assert.Equal(t, "0.3", summary.TotalExpense.String())
	assert.Equal(t, "999.7", summary.Balance.String())

	empty := Summarize(nil, idx)
	assert.True(t, empty.Balance.IsZero())
}
