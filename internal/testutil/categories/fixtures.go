package categories

import "github.com/Veraticus/spice-ledger/internal/model"

// Fixture is a named-by-variable set of category seeds.
type Fixture []model.CategorySeed

var (
	// FixtureMinimal has one category of each kind.
	FixtureMinimal = Fixture{
		{Name: string(CategoryFood), Kind: model.KindExpense},
		{Name: string(CategorySalary), Kind: model.KindIncome},
	}

	// FixtureStandard is the default set seeded for new tenants.
	FixtureStandard = Fixture(model.DefaultCategorySeeds())
)

// Merge combines fixtures. A repeated name keeps its first position and
// takes the kind from the later fixture.
func Merge(fixtures ...Fixture) Fixture {
	position := make(map[string]int)
	var merged Fixture
	for _, f := range fixtures {
		for _, seed := range f {
			if i, ok := position[seed.Name]; ok {
				merged[i] = seed
				continue
			}
			position[seed.Name] = len(merged)
			merged = append(merged, seed)
		}
	}
	return merged
}
