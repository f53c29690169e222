package rolebus_test

import (
	"context"
	"testing"

	"github.com/getorbital/orbital/business/domain/rolebus"
	"github.com/getorbital/orbital/business/sdk/dbtest"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/business/types/name"
	"github.com/stretchr/testify/require"
)

func Test_Role_CRUD(t *testing.T) {
	db := dbtest.New(t, "Test_Role_CRUD")
	ctx := context.Background()

	tenants, err := dbtest.NewTenants(ctx, db.BusDomain, 2)
	require.NoError(t, err)

	scopeA := tenancy.New(tenants[0].ID)
	scopeB := tenancy.New(tenants[1].ID)

	rl, err := db.BusDomain.Role.Create(ctx, scopeA, rolebus.NewRole{
		Name:        name.MustParse("Editors"),
		Description: "content editors",
	})
	require.NoError(t, err)
	require.Equal(t, tenants[0].ID, rl.TenantID)
	require.True(t, rl.Enabled)

	// Role names are unique per tenant, case-insensitively.
	_, err = db.BusDomain.Role.Create(ctx, scopeA, rolebus.NewRole{
		Name: name.MustParse("EDITORS"),
	})
	require.ErrorIs(t, err, rolebus.ErrUniqueName)

	// The same name is free in another tenant.
	_, err = db.BusDomain.Role.Create(ctx, scopeB, rolebus.NewRole{
		Name: name.MustParse("Editors"),
	})
	require.NoError(t, err)

	got, err := db.BusDomain.Role.QueryByName(ctx, scopeA, "editors")
	require.NoError(t, err)
	require.Equal(t, rl.ID, got.ID)

	// Lookups do not cross the boundary.
	_, err = db.BusDomain.Role.QueryByID(ctx, scopeB, rl.ID)
	require.ErrorIs(t, err, rolebus.ErrNotFound)

	desc := "renamed"
	upd, err := db.BusDomain.Role.Update(ctx, scopeA, rl, rolebus.UpdateRole{Description: &desc})
	require.NoError(t, err)
	require.Equal(t, "renamed", upd.Description)

	require.NoError(t, db.BusDomain.Role.Delete(ctx, scopeA, upd))

	_, err = db.BusDomain.Role.QueryByID(ctx, scopeA, rl.ID)
	require.ErrorIs(t, err, rolebus.ErrNotFound)
}
