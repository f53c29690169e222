package permbus_test

import (
	"context"
	"testing"

	"github.com/getorbital/orbital/business/domain/permbus"
	"github.com/getorbital/orbital/business/domain/rolebus"
	"github.com/getorbital/orbital/business/domain/userbus"
	"github.com/getorbital/orbital/business/sdk/dbtest"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/stretchr/testify/require"
)

func Test_Permission_Catalog(t *testing.T) {
	db := dbtest.New(t, "Test_Permission_Catalog")
	ctx := context.Background()

	system := tenancy.System()

	p, err := db.BusDomain.Perm.CreatePermission(ctx, system, permbus.NewPermission{
		Name:        "report.export",
		Description: "Export reports",
	})
	require.NoError(t, err)
	require.False(t, p.IsSystem)

	// Catalog writes are gated on the system scope.
	tenants, err := dbtest.NewTenants(ctx, db.BusDomain, 1)
	require.NoError(t, err)

	_, err = db.BusDomain.Perm.CreatePermission(ctx, tenancy.New(tenants[0].ID), permbus.NewPermission{
		Name: "report.share",
	})
	require.ErrorIs(t, err, permbus.ErrAccessDenied)

	// Names follow the dotted lower-case form.
	_, err = db.BusDomain.Perm.CreatePermission(ctx, system, permbus.NewPermission{
		Name: "Report Export!",
	})
	require.ErrorIs(t, err, permbus.ErrInvalidName)

	_, err = db.BusDomain.Perm.CreatePermission(ctx, system, permbus.NewPermission{
		Name: "report.export",
	})
	require.ErrorIs(t, err, permbus.ErrUniqueName)

	// Seeded entries are flagged as system and refuse deletion.
	sysPerm, err := db.BusDomain.Perm.QueryPermissionByName(ctx, "user.read")
	require.NoError(t, err)
	require.True(t, sysPerm.IsSystem)

	err = db.BusDomain.Perm.DeletePermission(ctx, system, sysPerm)
	require.ErrorIs(t, err, permbus.ErrSystemPermission)

	require.NoError(t, db.BusDomain.Perm.DeletePermission(ctx, system, p))

	_, err = db.BusDomain.Perm.QueryPermissionByName(ctx, "report.export")
	require.ErrorIs(t, err, permbus.ErrNotFound)
}

func Test_Permission_Resolution(t *testing.T) {
	db := dbtest.New(t, "Test_Permission_Resolution")
	ctx := context.Background()

	tenants, err := dbtest.NewTenants(ctx, db.BusDomain, 1)
	require.NoError(t, err)

	scope := tenancy.New(tenants[0].ID)

	users, err := dbtest.NewUsers(ctx, db.BusDomain, scope, 1)
	require.NoError(t, err)

	roles, err := dbtest.NewRoles(ctx, db.BusDomain, scope, 1)
	require.NoError(t, err)

	perm, err := db.BusDomain.Perm.QueryPermissionByName(ctx, "user.read")
	require.NoError(t, err)

	// No roles yet, no permission.
	has, err := db.BusDomain.Perm.UserHasPermission(ctx, scope, users[0].ID, "user.read")
	require.NoError(t, err)
	require.False(t, has)

	// user -> role -> permission makes the check pass.
	require.NoError(t, db.BusDomain.Perm.AssignPermissionToRole(ctx, scope, roles[0].ID, perm.ID))
	require.NoError(t, db.BusDomain.Perm.AssignRoleToUser(ctx, scope, users[0].ID, roles[0].ID))

	has, err = db.BusDomain.Perm.UserHasPermission(ctx, scope, users[0].ID, "user.read")
	require.NoError(t, err)
	require.True(t, has)

	// Assigning twice is a no-op, not an error.
	require.NoError(t, db.BusDomain.Perm.AssignRoleToUser(ctx, scope, users[0].ID, roles[0].ID))
	require.NoError(t, db.BusDomain.Perm.AssignPermissionToRole(ctx, scope, roles[0].ID, perm.ID))

	perms, err := db.BusDomain.Perm.QueryUserPermissions(ctx, scope, users[0].ID)
	require.NoError(t, err)
	require.Len(t, perms, 1)
	require.Equal(t, "user.read", perms[0].Name)

	rolePerms, err := db.BusDomain.Perm.QueryRolePermissions(ctx, scope, roles[0].ID)
	require.NoError(t, err)
	require.Len(t, rolePerms, 1)

	// Revoking the grant removes the permission transitively.
	require.NoError(t, db.BusDomain.Perm.RemovePermissionFromRole(ctx, scope, roles[0].ID, perm.ID))

	has, err = db.BusDomain.Perm.UserHasPermission(ctx, scope, users[0].ID, "user.read")
	require.NoError(t, err)
	require.False(t, has)

	// Revoking again is a no-op.
	require.NoError(t, db.BusDomain.Perm.RemovePermissionFromRole(ctx, scope, roles[0].ID, perm.ID))

	// Re-grant and then drop the role assignment instead.
	require.NoError(t, db.BusDomain.Perm.AssignPermissionToRole(ctx, scope, roles[0].ID, perm.ID))
	require.NoError(t, db.BusDomain.Perm.RemoveRoleFromUser(ctx, scope, users[0].ID, roles[0].ID))

	has, err = db.BusDomain.Perm.UserHasPermission(ctx, scope, users[0].ID, "user.read")
	require.NoError(t, err)
	require.False(t, has)
}

func Test_Permission_SystemScopeBypass(t *testing.T) {
	db := dbtest.New(t, "Test_Permission_SystemScopeBypass")
	ctx := context.Background()

	tenants, err := dbtest.NewTenants(ctx, db.BusDomain, 1)
	require.NoError(t, err)

	users, err := dbtest.NewUsers(ctx, db.BusDomain, tenancy.New(tenants[0].ID), 1)
	require.NoError(t, err)

	// The system scope is not subject to permission checks.
	has, err := db.BusDomain.Perm.UserHasPermission(ctx, tenancy.System(), users[0].ID, "user.read")
	require.NoError(t, err)
	require.True(t, has)
}

func Test_Permission_CrossTenantAssignment(t *testing.T) {
	db := dbtest.New(t, "Test_Permission_CrossTenantAssignment")
	ctx := context.Background()

	tenants, err := dbtest.NewTenants(ctx, db.BusDomain, 2)
	require.NoError(t, err)

	scopeA := tenancy.New(tenants[0].ID)
	scopeB := tenancy.New(tenants[1].ID)

	users, err := dbtest.NewUsers(ctx, db.BusDomain, scopeA, 1)
	require.NoError(t, err)

	roles, err := dbtest.NewRoles(ctx, db.BusDomain, scopeB, 1)
	require.NoError(t, err)

	// From inside a tenant the foreign role simply does not exist.
	err = db.BusDomain.Perm.AssignRoleToUser(ctx, scopeA, users[0].ID, roles[0].ID)
	require.ErrorIs(t, err, rolebus.ErrNotFound)

	err = db.BusDomain.Perm.AssignRoleToUser(ctx, scopeB, users[0].ID, roles[0].ID)
	require.ErrorIs(t, err, userbus.ErrNotFound)

	// The system scope sees both rows and must reject the mixed pair.
	err = db.BusDomain.Perm.AssignRoleToUser(ctx, tenancy.System(), users[0].ID, roles[0].ID)
	require.ErrorIs(t, err, tenancy.ErrTenantMismatch)
}

func Test_Permission_DisabledRole(t *testing.T) {
	db := dbtest.New(t, "Test_Permission_DisabledRole")
	ctx := context.Background()

	tenants, err := dbtest.NewTenants(ctx, db.BusDomain, 1)
	require.NoError(t, err)

	scope := tenancy.New(tenants[0].ID)

	users, err := dbtest.NewUsers(ctx, db.BusDomain, scope, 1)
	require.NoError(t, err)

	roles, err := dbtest.NewRoles(ctx, db.BusDomain, scope, 1)
	require.NoError(t, err)

	perm, err := db.BusDomain.Perm.QueryPermissionByName(ctx, "user.read")
	require.NoError(t, err)

	require.NoError(t, db.BusDomain.Perm.AssignPermissionToRole(ctx, scope, roles[0].ID, perm.ID))
	require.NoError(t, db.BusDomain.Perm.AssignRoleToUser(ctx, scope, users[0].ID, roles[0].ID))

	enabled := false
	_, err = db.BusDomain.Role.Update(ctx, scope, roles[0], rolebus.UpdateRole{Enabled: &enabled})
	require.NoError(t, err)

	// The materialized view of the user's permissions honors the disabled
	// role immediately.
	perms, err := db.BusDomain.Perm.QueryUserPermissions(ctx, scope, users[0].ID)
	require.NoError(t, err)
	require.Empty(t, perms)
}
