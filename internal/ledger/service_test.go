package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/period"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/Veraticus/spice-ledger/internal/testutil"
	"github.com/Veraticus/spice-ledger/internal/testutil/categories"
)

// fixedNow is a Friday in March 2024.
var fixedNow = time.Date(2024, time.March, 22, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, store service.Storage, opts ...Option) *Service {
	t.Helper()
	resolver, err := period.NewResolver("UTC", period.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	opts = append([]Option{WithRetryOptions(common.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	})}, opts...)
	return New(store, resolver, opts...)
}

func setupLedger(t *testing.T) (*Service, *testutil.TestDB) {
	t.Helper()
	db := testutil.SetupTestDBWithBuilder(t, func(b *categories.Builder) *categories.Builder {
		return b.WithBasicCategories()
	})
	return newTestService(t, db.Storage), db
}

func addTxn(t *testing.T, svc *Service, tenantID string, categoryID int64, amount, date string) *model.Transaction {
	t.Helper()
	d, err := model.ParseDate(date)
	require.NoError(t, err)
	txn, err := svc.CreateTransaction(context.Background(), tenantID, model.TransactionInput{
		CategoryID: categoryID,
		Amount:     decimal.RequireFromString(amount),
		OccurredOn: d,
	})
	require.NoError(t, err)
	return txn
}

func TestService_CreateTenant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	t.Run("seeds configured defaults", func(t *testing.T) {
		svc := newTestService(t, db.Storage)
		tenant, created, err := svc.CreateTenant(ctx, "acme")
		require.NoError(t, err)
		assert.Len(t, created, len(model.DefaultCategorySeeds()))

		cats, err := svc.ListCategories(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Len(t, cats, len(model.DefaultCategorySeeds()))
	})

	t.Run("duplicate seed names are created once", func(t *testing.T) {
		svc := newTestService(t, db.Storage, WithDefaultCategories([]model.CategorySeed{
			{Name: "Food", Kind: model.KindExpense},
			{Name: "Food", Kind: model.KindIncome},
			{Name: "Wages", Kind: model.KindIncome},
		}))
		tenant, created, err := svc.CreateTenant(ctx, "globex")
		require.NoError(t, err)
		require.Len(t, created, 2)
		assert.Equal(t, model.KindExpense, created[0].Kind)

		again, err := svc.SeedDefaultCategories(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Empty(t, again, "existing names are skipped")
	})

	t.Run("duplicate tenant leaves nothing behind", func(t *testing.T) {
		svc := newTestService(t, db.Storage)
		_, _, err := svc.CreateTenant(ctx, testutil.TestTenantName)
		assert.ErrorIs(t, err, common.ErrConflict)
	})
}

func TestService_ResolveTenant(t *testing.T) {
	svc, db := setupLedger(t)
	ctx := context.Background()

	byID, err := svc.ResolveTenant(ctx, db.Tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, db.Tenant.Name, byID.Name)

	byName, err := svc.ResolveTenant(ctx, testutil.TestTenantName)
	require.NoError(t, err)
	assert.Equal(t, db.Tenant.ID, byName.ID)

	_, err = svc.ResolveTenant(ctx, "nobody")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = svc.ResolveTenant(ctx, "")
	assert.ErrorIs(t, err, common.ErrMissingField)
}

func TestService_TransactionsAreTenantScoped(t *testing.T) {
	svc, db := setupLedger(t)
	ctx := context.Background()
	food := db.MustCategoryID(categories.CategoryFood)

	other := db.AddTenant("globex")
	txn := addTxn(t, svc, db.Tenant.ID, food, "42", "2024-03-10")

	listed, err := svc.ListTransactions(ctx, db.Tenant.ID, "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, txn.ID, listed[0].ID)

	otherTxns, err := svc.ListTransactions(ctx, other.ID, "", "")
	require.NoError(t, err)
	assert.Empty(t, otherTxns)

	_, err = svc.CreateTransaction(ctx, other.ID, model.TransactionInput{
		CategoryID: food,
		Amount:     decimal.NewFromInt(1),
		OccurredOn: model.NewDate(2024, time.March, 1),
	})
	assert.ErrorIs(t, err, common.ErrInvalidCategory)

	assert.ErrorIs(t, svc.DeleteTransaction(ctx, other.ID, txn.ID), common.ErrNotFound)

	_, err = svc.ListTransactions(ctx, "missing", "", "")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = svc.ListTransactions(ctx, db.Tenant.ID, "2024-04-01", "2024-03-01")
	assert.ErrorIs(t, err, common.ErrInvalidRange)
}

func TestService_ListTransactionsOrdered(t *testing.T) {
	svc, db := setupLedger(t)
	food := db.MustCategoryID(categories.CategoryFood)

	third := addTxn(t, svc, db.Tenant.ID, food, "3", "2024-03-03")
	first := addTxn(t, svc, db.Tenant.ID, food, "1", "2024-03-01")
	second := addTxn(t, svc, db.Tenant.ID, food, "2", "2024-03-01")

	listed, err := svc.ListTransactions(context.Background(), db.Tenant.ID, "", "")
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, []int64{first.ID, second.ID, third.ID}, []int64{listed[0].ID, listed[1].ID, listed[2].ID})
}

func TestService_CreateThenListExactlyOnce(t *testing.T) {
	svc, db := setupLedger(t)
	food := db.MustCategoryID(categories.CategoryFood)

	for i, date := range []string{"2024-01-01", "2024-02-29", "2024-12-31"} {
		amount := fmt.Sprintf("%d.0%d", i, i+1)
		txn := addTxn(t, svc, db.Tenant.ID, food, amount, date)

		listed, err := svc.ListTransactions(context.Background(), db.Tenant.ID, date, date)
		require.NoError(t, err)

		count := 0
		for _, l := range listed {
			if l.ID == txn.ID {
				count++
			}
		}
		assert.Equal(t, 1, count, "date %s", date)
	}
}
