// Package categories seeds a test tenant's categories through a small
// fluent builder with typed names.
//
//	db := testutil.SetupTestDBWithBuilder(t, func(b *categories.Builder) *categories.Builder {
//		return b.WithBasicCategories().WithIncome("Consulting")
//	})
//	food := db.Categories.MustFind(t, categories.CategoryFood)
package categories

import (
	"context"
	"fmt"
	"testing"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// CategoryName is a category name used in tests.
type CategoryName string

// Names shared by tests.
const (
	CategoryFood          CategoryName = "Food"
	CategoryTransport     CategoryName = "Transport"
	CategoryHousing       CategoryName = "Housing"
	CategoryInvestment    CategoryName = "Investment"
	CategoryMiscellaneous CategoryName = "Miscellaneous"
	CategorySalary        CategoryName = "Salary"
	CategoryBonus         CategoryName = "Bonus"
	CategoryFlowerSales   CategoryName = "Flower Sales"
)

// Creator is the part of the store a Builder writes through.
type Creator interface {
	CreateCategory(ctx context.Context, tenantID, name string, kind model.CategoryKind) (*model.Category, error)
}

// Categories are the categories a Builder created, in creation order.
type Categories []model.Category

// Find returns the first category called name, or nil.
func (c Categories) Find(name CategoryName) *model.Category {
	for i := range c {
		if c[i].Name == string(name) {
			return &c[i]
		}
	}
	return nil
}

// MustFind returns the category called name or fails the test.
func (c Categories) MustFind(t *testing.T, name CategoryName) model.Category {
	t.Helper()
	category := c.Find(name)
	if category == nil {
		t.Fatalf("category %q not found in test data", name)
	}
	return *category
}

// Builder collects category seeds. Adding a name twice keeps its first
// position and its last kind, so ids follow the order names were added.
type Builder struct {
	t        *testing.T
	position map[CategoryName]int
	seeds    []model.CategorySeed
}

// NewBuilder creates an empty builder.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t, position: make(map[CategoryName]int)}
}

func (b *Builder) add(name CategoryName, kind model.CategoryKind) *Builder {
	if i, ok := b.position[name]; ok {
		b.seeds[i].Kind = kind
		return b
	}
	b.position[name] = len(b.seeds)
	b.seeds = append(b.seeds, model.CategorySeed{Name: string(name), Kind: kind})
	return b
}

// WithCategory adds expense categories.
func (b *Builder) WithCategory(names ...CategoryName) *Builder {
	for _, name := range names {
		b.add(name, model.KindExpense)
	}
	return b
}

// WithIncome adds income categories.
func (b *Builder) WithIncome(names ...CategoryName) *Builder {
	for _, name := range names {
		b.add(name, model.KindIncome)
	}
	return b
}

// WithFixture adds every seed of f.
func (b *Builder) WithFixture(f Fixture) *Builder {
	for _, seed := range f {
		b.add(CategoryName(seed.Name), seed.Kind)
	}
	return b
}

// WithBasicCategories adds Food (expense) and Salary (income).
func (b *Builder) WithBasicCategories() *Builder {
	return b.WithFixture(FixtureMinimal)
}

// Seeds returns the collected seeds in order.
func (b *Builder) Seeds() []model.CategorySeed {
	return append([]model.CategorySeed(nil), b.seeds...)
}

// Build creates the collected categories for tenantID.
func (b *Builder) Build(ctx context.Context, store Creator, tenantID string) (Categories, error) {
	b.t.Helper()

	created := make(Categories, 0, len(b.seeds))
	for _, seed := range b.seeds {
		category, err := store.CreateCategory(ctx, tenantID, seed.Name, seed.Kind)
		if err != nil {
			return nil, fmt.Errorf("failed to create category %q: %w", seed.Name, err)
		}
		created = append(created, *category)
	}
	return created, nil
}
