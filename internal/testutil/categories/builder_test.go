package categories_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/testutil"
	"github.com/Veraticus/spice-ledger/internal/testutil/categories"
)

func TestBuilder_WithBasicCategories(t *testing.T) {
	db := testutil.SetupTestDBWithBuilder(t, func(b *categories.Builder) *categories.Builder {
		return b.WithBasicCategories()
	})

	food := db.Categories.MustFind(t, categories.CategoryFood)
	salary := db.Categories.MustFind(t, categories.CategorySalary)
	assert.Equal(t, model.KindExpense, food.Kind)
	assert.Equal(t, model.KindIncome, salary.Kind)
	assert.Less(t, food.ID, salary.ID, "ids follow insertion order")

	stored, err := db.Storage.ListCategories(context.Background(), db.Tenant.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestBuilder_RepeatedNameTakesLastKind(t *testing.T) {
	b := categories.NewBuilder(t).
		WithCategory("Refunds", categories.CategoryFood).
		WithIncome("Refunds")

	assert.Equal(t, []model.CategorySeed{
		{Name: "Refunds", Kind: model.KindIncome},
		{Name: "Food", Kind: model.KindExpense},
	}, b.Seeds())
}

func TestMerge(t *testing.T) {
	merged := categories.Merge(categories.FixtureMinimal, categories.FixtureStandard,
		categories.Fixture{{Name: "Food", Kind: model.KindIncome}})

	require.NotEmpty(t, merged)
	assert.Equal(t, model.CategorySeed{Name: "Food", Kind: model.KindIncome}, merged[0])
	assert.Equal(t, "Salary", merged[1].Name)

	seen := make(map[string]bool)
	for _, seed := range merged {
		assert.False(t, seen[seed.Name], "duplicate %s", seed.Name)
		seen[seed.Name] = true
	}
	assert.Len(t, merged, len(categories.FixtureStandard)+1)
}
