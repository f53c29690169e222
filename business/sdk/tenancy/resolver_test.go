package tenancy_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/business/types/slug"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type lookupStub struct {
	slugs map[string]uuid.UUID
}

func (l lookupStub) QueryIDBySlug(ctx context.Context, sl slug.Slug) (uuid.UUID, error) {
	if id, exists := l.slugs[sl.String()]; exists {
		return id, nil
	}
	return uuid.Nil, errors.New("not found")
}

func newResolver(t *testing.T, cfg tenancy.Config, slugs map[string]uuid.UUID) *tenancy.Resolver {
	t.Helper()

	cfg.Log = logger.New(io.Discard, logger.LevelInfo, "TEST", nil)
	cfg.Lookup = lookupStub{slugs: slugs}

	r, err := tenancy.NewResolver(cfg)
	require.NoError(t, err)

	return r
}

func Test_Resolver_Subdomain(t *testing.T) {
	acmeID := uuid.New()

	r := newResolver(t, tenancy.Config{Strategy: tenancy.StrategySubdomain}, map[string]uuid.UUID{
		"acme": acmeID,
	})

	ctx := context.Background()

	req := httptest.NewRequest("GET", "/v1/users", nil)
	req.Host = "acme.getorbital.io"

	scope, err := r.Resolve(ctx, req, tenancy.Claims{})
	require.NoError(t, err)
	require.Equal(t, acmeID, scope.TenantID())
	require.Equal(t, "acme", scope.Identifier())

	// Port suffix must not break host parsing.
	req.Host = "acme.getorbital.io:3000"
	scope, err = r.Resolve(ctx, req, tenancy.Claims{})
	require.NoError(t, err)
	require.Equal(t, acmeID, scope.TenantID())

	// Bare apex domain has no subdomain to resolve.
	req.Host = "getorbital.io"
	_, err = r.Resolve(ctx, req, tenancy.Claims{})
	require.ErrorIs(t, err, tenancy.ErrNoTenant)

	// Reserved labels never identify a tenant.
	req.Host = "www.getorbital.io"
	_, err = r.Resolve(ctx, req, tenancy.Claims{})
	require.ErrorIs(t, err, tenancy.ErrNoTenant)
}

func Test_Resolver_Path(t *testing.T) {
	acmeID := uuid.New()
	otherID := uuid.New()

	r := newResolver(t, tenancy.Config{Strategy: tenancy.StrategyPath}, map[string]uuid.UUID{
		"acme": acmeID,
	})

	ctx := context.Background()

	req := httptest.NewRequest("GET", "/tenant/acme/users", nil)
	scope, err := r.Resolve(ctx, req, tenancy.Claims{})
	require.NoError(t, err)
	require.Equal(t, acmeID, scope.TenantID())

	// A raw uuid in the path is honored without a lookup.
	req = httptest.NewRequest("GET", "/tenant/"+otherID.String()+"/users", nil)
	scope, err = r.Resolve(ctx, req, tenancy.Claims{})
	require.NoError(t, err)
	require.Equal(t, otherID, scope.TenantID())

	req = httptest.NewRequest("GET", "/v1/users", nil)
	_, err = r.Resolve(ctx, req, tenancy.Claims{})
	require.ErrorIs(t, err, tenancy.ErrNoTenant)
}

func Test_Resolver_Header(t *testing.T) {
	acmeID := uuid.New()
	headerID := uuid.New()

	r := newResolver(t, tenancy.Config{Strategy: tenancy.StrategyHeader}, map[string]uuid.UUID{
		"acme": acmeID,
	})

	ctx := context.Background()

	req := httptest.NewRequest("GET", "/v1/users", nil)
	req.Header.Set("X-TenantId", headerID.String())

	scope, err := r.Resolve(ctx, req, tenancy.Claims{})
	require.NoError(t, err)
	require.Equal(t, headerID, scope.TenantID())

	req = httptest.NewRequest("GET", "/v1/users", nil)
	req.Header.Set("X-TenantIdentifier", "acme")

	scope, err = r.Resolve(ctx, req, tenancy.Claims{})
	require.NoError(t, err)
	require.Equal(t, acmeID, scope.TenantID())
}

func Test_Resolver_Fallbacks(t *testing.T) {
	acmeID := uuid.New()
	claimID := uuid.New()
	defaultID := uuid.New()

	ctx := context.Background()

	// Primary strategy wins over claims.
	r := newResolver(t, tenancy.Config{Strategy: tenancy.StrategySubdomain}, map[string]uuid.UUID{
		"acme": acmeID,
	})

	req := httptest.NewRequest("GET", "/v1/users", nil)
	req.Host = "acme.getorbital.io"

	scope, err := r.Resolve(ctx, req, tenancy.Claims{TenantID: claimID.String()})
	require.NoError(t, err)
	require.Equal(t, acmeID, scope.TenantID())

	// Claims are consulted when the primary strategy yields nothing.
	req.Host = "getorbital.io"
	scope, err = r.Resolve(ctx, req, tenancy.Claims{TenantID: claimID.String()})
	require.NoError(t, err)
	require.Equal(t, claimID, scope.TenantID())

	// The configured default catches everything else.
	r = newResolver(t, tenancy.Config{
		Strategy:        tenancy.StrategySubdomain,
		DefaultTenantID: defaultID,
	}, nil)

	scope, err = r.Resolve(ctx, req, tenancy.Claims{})
	require.NoError(t, err)
	require.Equal(t, defaultID, scope.TenantID())
}

func Test_Resolver_FailsClosed(t *testing.T) {
	ctx := context.Background()

	r := newResolver(t, tenancy.Config{Strategy: tenancy.StrategyHeader}, nil)

	req := httptest.NewRequest("GET", "/v1/users", nil)

	_, err := r.Resolve(ctx, req, tenancy.Claims{})
	require.ErrorIs(t, err, tenancy.ErrNoTenant)

	// With the explicit fallback the same request yields the system scope.
	r = newResolver(t, tenancy.Config{
		Strategy:       tenancy.StrategyHeader,
		SystemFallback: true,
	}, nil)

	scope, err := r.Resolve(ctx, req, tenancy.Claims{})
	require.NoError(t, err)
	require.True(t, scope.IsSystem())
}

func Test_Resolver_UnknownStrategy(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)

	_, err := tenancy.NewResolver(tenancy.Config{
		Log:      log,
		Lookup:   lookupStub{},
		Strategy: tenancy.Strategy("dns"),
	})
	require.Error(t, err)
}
