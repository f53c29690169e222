package userbus_test

import (
	"context"
	"net/mail"
	"testing"

	"github.com/getorbital/orbital/business/domain/userbus"
	"github.com/getorbital/orbital/business/sdk/dbtest"
	"github.com/getorbital/orbital/business/sdk/order"
	"github.com/getorbital/orbital/business/sdk/page"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/business/types/name"
	"github.com/getorbital/orbital/business/types/password"
	"github.com/getorbital/orbital/business/types/username"
	"github.com/stretchr/testify/require"
)

func Test_User_TenantIsolation(t *testing.T) {
	db := dbtest.New(t, "Test_User_TenantIsolation")
	ctx := context.Background()

	tenants, err := dbtest.NewTenants(ctx, db.BusDomain, 2)
	require.NoError(t, err)

	scopeA := tenancy.New(tenants[0].ID)
	scopeB := tenancy.New(tenants[1].ID)

	usersA, err := dbtest.NewUsers(ctx, db.BusDomain, scopeA, 2)
	require.NoError(t, err)

	_, err = dbtest.NewUsers(ctx, db.BusDomain, scopeB, 1)
	require.NoError(t, err)

	// A tenant scope stamps its own tenant on every row it creates.
	require.Equal(t, tenants[0].ID, usersA[0].TenantID)

	// A row is invisible outside the scope it was created under.
	_, err = db.BusDomain.User.QueryByID(ctx, scopeB, usersA[0].ID)
	require.ErrorIs(t, err, userbus.ErrNotFound)

	usr, err := db.BusDomain.User.QueryByID(ctx, scopeA, usersA[0].ID)
	require.NoError(t, err)
	require.Equal(t, usersA[0].ID, usr.ID)

	// The system scope sees across tenant boundaries.
	usr, err = db.BusDomain.User.QueryByID(ctx, tenancy.System(), usersA[0].ID)
	require.NoError(t, err)
	require.Equal(t, tenants[0].ID, usr.TenantID)

	countA, err := db.BusDomain.User.Count(ctx, scopeA)
	require.NoError(t, err)
	require.Equal(t, 2, countA)

	countAll, err := db.BusDomain.User.Count(ctx, tenancy.System())
	require.NoError(t, err)
	require.Equal(t, 3, countAll)
}

func Test_User_UniquePerTenant(t *testing.T) {
	db := dbtest.New(t, "Test_User_UniquePerTenant")
	ctx := context.Background()

	tenants, err := dbtest.NewTenants(ctx, db.BusDomain, 2)
	require.NoError(t, err)

	scopeA := tenancy.New(tenants[0].ID)
	scopeB := tenancy.New(tenants[1].ID)

	nu := userbus.NewUser{
		Username: username.MustParse("jdoe"),
		Email:    mail.Address{Address: "jdoe@example.com"},
		FullName: name.MustParse("John Doe"),
		Password: password.MustParse("gophers123"),
	}

	_, err = db.BusDomain.User.Create(ctx, scopeA, nu)
	require.NoError(t, err)

	// Same username inside the same tenant is rejected, case-insensitively.
	nu2 := nu
	nu2.Username = username.MustParse("JDoe")
	nu2.Email = mail.Address{Address: "jdoe2@example.com"}
	_, err = db.BusDomain.User.Create(ctx, scopeA, nu2)
	require.ErrorIs(t, err, userbus.ErrUniqueUsername)

	nu3 := nu
	nu3.Username = username.MustParse("jdoe2")
	nu3.Email = mail.Address{Address: "JDOE@example.com"}
	_, err = db.BusDomain.User.Create(ctx, scopeA, nu3)
	require.ErrorIs(t, err, userbus.ErrUniqueEmail)

	// The same username and email are free in another tenant.
	_, err = db.BusDomain.User.Create(ctx, scopeB, nu)
	require.NoError(t, err)
}

func Test_User_Update(t *testing.T) {
	db := dbtest.New(t, "Test_User_Update")
	ctx := context.Background()

	tenants, err := dbtest.NewTenants(ctx, db.BusDomain, 1)
	require.NoError(t, err)

	scope := tenancy.New(tenants[0].ID)

	users, err := dbtest.NewUsers(ctx, db.BusDomain, scope, 1)
	require.NoError(t, err)

	fn := name.MustParse("Updated Name")
	enabled := false

	usr, err := db.BusDomain.User.Update(ctx, scope, users[0], userbus.UpdateUser{
		FullName: &fn,
		Enabled:  &enabled,
	})
	require.NoError(t, err)
	require.Equal(t, "Updated Name", usr.FullName.String())
	require.False(t, usr.Enabled)

	got, err := db.BusDomain.User.QueryByID(ctx, scope, usr.ID)
	require.NoError(t, err)
	require.False(t, got.Enabled)

	require.NoError(t, db.BusDomain.User.Delete(ctx, scope, usr))

	_, err = db.BusDomain.User.QueryByID(ctx, scope, usr.ID)
	require.ErrorIs(t, err, userbus.ErrNotFound)
}

func Test_User_Query(t *testing.T) {
	db := dbtest.New(t, "Test_User_Query")
	ctx := context.Background()

	tenants, err := dbtest.NewTenants(ctx, db.BusDomain, 1)
	require.NoError(t, err)

	scope := tenancy.New(tenants[0].ID)

	_, err = dbtest.NewUsers(ctx, db.BusDomain, scope, 5)
	require.NoError(t, err)

	users, err := db.BusDomain.User.Query(ctx, scope, order.NewBy("username", order.ASC), page.MustParse("1", "3"))
	require.NoError(t, err)
	require.Len(t, users, 3)

	users, err = db.BusDomain.User.Query(ctx, scope, order.NewBy("username", order.ASC), page.MustParse("2", "3"))
	require.NoError(t, err)
	require.Len(t, users, 2)

	// Ordering by a column that is not exposed must fail, not silently sort.
	_, err = db.BusDomain.User.Query(ctx, scope, order.NewBy("password_hash; DROP TABLE users", order.ASC), page.MustParse("1", "3"))
	require.Error(t, err)
}

func Test_User_Authenticate(t *testing.T) {
	db := dbtest.New(t, "Test_User_Authenticate")
	ctx := context.Background()

	tenants, err := dbtest.NewTenants(ctx, db.BusDomain, 1)
	require.NoError(t, err)

	scope := tenancy.New(tenants[0].ID)

	users, err := dbtest.NewUsers(ctx, db.BusDomain, scope, 1)
	require.NoError(t, err)

	usr, err := db.BusDomain.User.Authenticate(ctx, scope, users[0].Username.String(), password.MustParse("gophers123"))
	require.NoError(t, err)
	require.Equal(t, users[0].ID, usr.ID)

	_, err = db.BusDomain.User.Authenticate(ctx, scope, users[0].Username.String(), password.MustParse("wrongpassword"))
	require.ErrorIs(t, err, userbus.ErrAuthenticationFailure)

	_, err = db.BusDomain.User.Authenticate(ctx, scope, "ghost_user", password.MustParse("gophers123"))
	require.ErrorIs(t, err, userbus.ErrAuthenticationFailure)

	// A disabled user cannot authenticate even with the right password.
	enabled := false
	_, err = db.BusDomain.User.Update(ctx, scope, users[0], userbus.UpdateUser{Enabled: &enabled})
	require.NoError(t, err)

	_, err = db.BusDomain.User.Authenticate(ctx, scope, users[0].Username.String(), password.MustParse("gophers123"))
	require.ErrorIs(t, err, userbus.ErrAuthenticationFailure)
}
