package tenancy_test

import (
	"testing"

	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Scope(t *testing.T) {
	tenantID := uuid.New()

	scope := tenancy.New(tenantID)
	require.False(t, scope.IsSystem())
	require.Equal(t, tenantID, scope.TenantID())
	require.Equal(t, tenantID.String(), scope.String())

	system := tenancy.System()
	require.True(t, system.IsSystem())
	require.Equal(t, uuid.Nil, system.TenantID())
	require.Equal(t, "system", system.String())

	// The zero value must behave as the system scope.
	var zero tenancy.Scope
	require.True(t, zero.IsSystem())
	require.True(t, zero.Equal(system))

	require.False(t, scope.Equal(system))
	require.True(t, scope.Equal(tenancy.NewWithIdentifier(tenantID, "acme")))
}

func Test_ScopeIdentifier(t *testing.T) {
	tenantID := uuid.New()

	scope := tenancy.NewWithIdentifier(tenantID, "acme")
	require.Equal(t, "acme", scope.Identifier())
	require.Equal(t, tenantID, scope.TenantID())

	data, err := scope.MarshalText()
	require.NoError(t, err)
	require.Equal(t, tenantID.String(), string(data))
}
