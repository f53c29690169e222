package tenantbus_test

import (
	"context"
	"testing"

	"github.com/getorbital/orbital/business/domain/tenantbus"
	"github.com/getorbital/orbital/business/domain/userbus"
	"github.com/getorbital/orbital/business/sdk/dbtest"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/business/types/name"
	"github.com/getorbital/orbital/business/types/slug"
	"github.com/stretchr/testify/require"
)

func Test_Tenant_CRUD(t *testing.T) {
	db := dbtest.New(t, "Test_Tenant_CRUD")
	ctx := context.Background()

	system := tenancy.System()

	tn, err := db.BusDomain.Tenant.Create(ctx, system, tenantbus.NewTenant{
		Name: name.MustParse("Acme Industries"),
		Slug: slug.MustParse("acme"),
	})
	require.NoError(t, err)
	require.True(t, tn.Enabled)

	// Slugs are globally unique.
	_, err = db.BusDomain.Tenant.Create(ctx, system, tenantbus.NewTenant{
		Name: name.MustParse("Acme Clone"),
		Slug: slug.MustParse("acme"),
	})
	require.ErrorIs(t, err, tenantbus.ErrUniqueSlug)

	id, err := db.BusDomain.Tenant.QueryIDBySlug(ctx, slug.MustParse("acme"))
	require.NoError(t, err)
	require.Equal(t, tn.ID, id)

	nm := name.MustParse("Acme Renamed")
	got, err := db.BusDomain.Tenant.Update(ctx, system, tn, tenantbus.UpdateTenant{Name: &nm})
	require.NoError(t, err)
	require.Equal(t, "Acme Renamed", got.Name.String())

	require.NoError(t, db.BusDomain.Tenant.Delete(ctx, system, got))

	_, err = db.BusDomain.Tenant.QueryByID(ctx, tn.ID)
	require.ErrorIs(t, err, tenantbus.ErrNotFound)
}

func Test_Tenant_SystemScopeGate(t *testing.T) {
	db := dbtest.New(t, "Test_Tenant_SystemScopeGate")
	ctx := context.Background()

	tenants, err := dbtest.NewTenants(ctx, db.BusDomain, 1)
	require.NoError(t, err)

	scope := tenancy.New(tenants[0].ID)

	// Tenant lifecycle operations refuse tenant scopes.
	_, err = db.BusDomain.Tenant.Create(ctx, scope, tenantbus.NewTenant{
		Name: name.MustParse("Rogue Tenant"),
		Slug: slug.MustParse("rogue"),
	})
	require.ErrorIs(t, err, tenantbus.ErrAccessDenied)

	_, err = db.BusDomain.Tenant.Query(ctx, scope)
	require.ErrorIs(t, err, tenantbus.ErrAccessDenied)

	err = db.BusDomain.Tenant.Delete(ctx, scope, tenants[0])
	require.ErrorIs(t, err, tenantbus.ErrAccessDenied)
}

func Test_Tenant_CascadeDelete(t *testing.T) {
	db := dbtest.New(t, "Test_Tenant_CascadeDelete")
	ctx := context.Background()

	tenants, err := dbtest.NewTenants(ctx, db.BusDomain, 1)
	require.NoError(t, err)

	scope := tenancy.New(tenants[0].ID)

	users, err := dbtest.NewUsers(ctx, db.BusDomain, scope, 2)
	require.NoError(t, err)

	_, err = dbtest.NewRoles(ctx, db.BusDomain, scope, 1)
	require.NoError(t, err)

	require.NoError(t, db.BusDomain.Tenant.Delete(ctx, tenancy.System(), tenants[0]))

	// All scoped rows go down with the tenant.
	count, err := db.BusDomain.User.Count(ctx, tenancy.System())
	require.NoError(t, err)
	require.Equal(t, 0, count)

	_, err = db.BusDomain.User.QueryByID(ctx, tenancy.System(), users[0].ID)
	require.ErrorIs(t, err, userbus.ErrNotFound)
}
