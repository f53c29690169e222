package unitofwork_test

import (
	"context"
	"net/mail"
	"testing"

	"github.com/getorbital/orbital/business/domain/tenantbus"
	"github.com/getorbital/orbital/business/domain/userbus"
	"github.com/getorbital/orbital/business/sdk/dbtest"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/business/sdk/unitofwork"
	"github.com/getorbital/orbital/business/types/name"
	"github.com/getorbital/orbital/business/types/password"
	"github.com/getorbital/orbital/business/types/slug"
	"github.com/getorbital/orbital/business/types/username"
	"github.com/stretchr/testify/require"
)

func Test_UnitOfWork_Commit(t *testing.T) {
	db := dbtest.New(t, "Test_UnitOfWork_Commit")
	ctx := context.Background()

	uow, err := db.BusDomain.UOW.Begin(ctx, tenancy.System())
	require.NoError(t, err)
	defer uow.Close()

	tn, err := uow.Tenants().Create(ctx, uow.Scope(), tenantbus.NewTenant{
		Name: name.MustParse("Acme Industries"),
		Slug: slug.MustParse("acme"),
	})
	require.NoError(t, err)

	_, err = uow.Users().Create(ctx, uow.Scope(), userbus.NewUser{
		TenantID: tn.ID,
		Username: username.MustParse("acme_admin"),
		Email:    mail.Address{Address: "admin@acme.com"},
		FullName: name.MustParse("Acme Admin"),
		Password: password.MustParse("gophers123"),
	})
	require.NoError(t, err)

	// Both writes already executed on the transaction.
	count, err := uow.SaveChanges(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.NoError(t, uow.Commit())

	// The unit is finished; everything after is ErrDone.
	_, err = uow.SaveChanges(ctx)
	require.ErrorIs(t, err, unitofwork.ErrDone)
	require.ErrorIs(t, uow.Commit(), unitofwork.ErrDone)
	require.NoError(t, uow.Close())

	got, err := db.BusDomain.Tenant.QueryByID(ctx, tn.ID)
	require.NoError(t, err)
	require.Equal(t, "acme", got.Slug.String())
}

func Test_UnitOfWork_Rollback(t *testing.T) {
	db := dbtest.New(t, "Test_UnitOfWork_Rollback")
	ctx := context.Background()

	uow, err := db.BusDomain.UOW.Begin(ctx, tenancy.System())
	require.NoError(t, err)

	tn, err := uow.Tenants().Create(ctx, uow.Scope(), tenantbus.NewTenant{
		Name: name.MustParse("Ghost Corp"),
		Slug: slug.MustParse("ghost"),
	})
	require.NoError(t, err)

	// The write is visible inside the transaction.
	inside, err := uow.Tenants().QueryIDBySlug(ctx, slug.MustParse("ghost"))
	require.NoError(t, err)
	require.Equal(t, tn.ID, inside)

	require.NoError(t, uow.Rollback())

	// And gone after the rollback.
	_, err = db.BusDomain.Tenant.QueryByID(ctx, tn.ID)
	require.ErrorIs(t, err, tenantbus.ErrNotFound)
}

func Test_UnitOfWork_CloseRollsBack(t *testing.T) {
	db := dbtest.New(t, "Test_UnitOfWork_CloseRollsBack")
	ctx := context.Background()

	uow, err := db.BusDomain.UOW.Begin(ctx, tenancy.System())
	require.NoError(t, err)

	tn, err := uow.Tenants().Create(ctx, uow.Scope(), tenantbus.NewTenant{
		Name: name.MustParse("Never Lands"),
		Slug: slug.MustParse("neverlands"),
	})
	require.NoError(t, err)

	// Close without a commit behaves like a rollback.
	require.NoError(t, uow.Close())

	_, err = db.BusDomain.Tenant.QueryByID(ctx, tn.ID)
	require.ErrorIs(t, err, tenantbus.ErrNotFound)
}

func Test_UnitOfWork_ScopeBindsEveryBus(t *testing.T) {
	db := dbtest.New(t, "Test_UnitOfWork_ScopeBindsEveryBus")
	ctx := context.Background()

	tenants, err := dbtest.NewTenants(ctx, db.BusDomain, 2)
	require.NoError(t, err)

	scope := tenancy.New(tenants[0].ID)

	uow, err := db.BusDomain.UOW.Begin(ctx, scope)
	require.NoError(t, err)
	defer uow.Close()

	require.True(t, uow.Scope().Equal(scope))

	usr, err := uow.Users().Create(ctx, uow.Scope(), userbus.NewUser{
		Username: username.MustParse("scoped_user"),
		Email:    mail.Address{Address: "scoped@example.com"},
		FullName: name.MustParse("Scoped User"),
		Password: password.MustParse("gophers123"),
	})
	require.NoError(t, err)

	// The stamp comes from the unit's scope, not from the input.
	require.Equal(t, tenants[0].ID, usr.TenantID)

	// The other tenant's scope cannot see the row even inside the
	// transaction.
	_, err = uow.Users().QueryByID(ctx, tenancy.New(tenants[1].ID), usr.ID)
	require.ErrorIs(t, err, userbus.ErrNotFound)

	require.NoError(t, uow.Commit())
}
