package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
)

func TestSQLiteStorage_Tenants(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	acme, err := store.CreateTenant(ctx, " acme ")
	require.NoError(t, err)
	assert.Equal(t, "acme", acme.Name)
	_, err = uuid.Parse(acme.ID)
	assert.NoError(t, err)

	_, err = store.CreateTenant(ctx, "acme")
	assert.ErrorIs(t, err, common.ErrConflict)

	_, err = store.CreateTenant(ctx, "")
	assert.ErrorIs(t, err, common.ErrMissingField)

	globex, err := store.CreateTenant(ctx, "globex")
	require.NoError(t, err)

	got, err := store.GetTenant(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, acme.Name, got.Name)

	got, err = store.GetTenantByName(ctx, "globex")
	require.NoError(t, err)
	assert.Equal(t, globex.ID, got.ID)

	_, err = store.GetTenant(ctx, uuid.NewString())
	assert.ErrorIs(t, err, common.ErrNotFound)

	tenants, err := store.ListTenants(ctx)
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, "acme", tenants[0].Name)
	assert.Equal(t, "globex", tenants[1].Name)
}
