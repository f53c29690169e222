package sectionbus_test

import (
	"context"
	"testing"

	"github.com/getorbital/orbital/business/domain/sectionbus"
	"github.com/getorbital/orbital/business/sdk/dbtest"
	"github.com/getorbital/orbital/business/sdk/order"
	"github.com/getorbital/orbital/business/sdk/page"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/business/types/name"
	"github.com/stretchr/testify/require"
)

func Test_Section_CRUD(t *testing.T) {
	db := dbtest.New(t, "Test_Section_CRUD")
	ctx := context.Background()

	tenants, err := dbtest.NewTenants(ctx, db.BusDomain, 2)
	require.NoError(t, err)

	scopeA := tenancy.New(tenants[0].ID)
	scopeB := tenancy.New(tenants[1].ID)

	sec, err := db.BusDomain.Section.Create(ctx, scopeA, sectionbus.NewSection{
		Name:        name.MustParse("Billing"),
		Description: "billing pages",
	})
	require.NoError(t, err)
	require.Equal(t, tenants[0].ID, sec.TenantID)

	_, err = db.BusDomain.Section.Create(ctx, scopeA, sectionbus.NewSection{
		Name: name.MustParse("billing"),
	})
	require.ErrorIs(t, err, sectionbus.ErrUniqueName)

	// The boundary applies to sections like any scoped entity.
	_, err = db.BusDomain.Section.QueryByID(ctx, scopeB, sec.ID)
	require.ErrorIs(t, err, sectionbus.ErrNotFound)

	_, err = dbtest.NewSections(ctx, db.BusDomain, scopeA, 3)
	require.NoError(t, err)

	sections, err := db.BusDomain.Section.Query(ctx, scopeA, order.NewBy("name", order.ASC), page.MustParse("1", "10"))
	require.NoError(t, err)
	require.Len(t, sections, 4)

	count, err := db.BusDomain.Section.Count(ctx, scopeB)
	require.NoError(t, err)
	require.Equal(t, 0, count)
}
