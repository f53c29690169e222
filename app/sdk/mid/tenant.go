package mid

import (
	"context"
	"errors"
	"net/http"

	"github.com/getorbital/orbital/app/sdk/errs"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/business/sdk/web"
)

// Tenant resolves the tenant scope for the request and stages it in the
// context. Resolution happens once here; everything downstream reads the
// same snapshot. A request that resolves nothing is rejected unless the
// resolver was configured with a system fallback.
func Tenant(resolver *tenancy.Resolver) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			claims := GetClaims(ctx)

			scope, err := resolver.Resolve(ctx, r, tenancy.Claims{
				TenantID:         claims.TenantID,
				TenantIdentifier: claims.TenantIdentifier,
			})
			if err != nil {
				if errors.Is(err, tenancy.ErrNoTenant) {
					return errs.New(errs.FailedPrecondition, err)
				}
				return errs.New(errs.Internal, err)
			}

			ctx = setScope(ctx, scope)

			return next(ctx, r)
		}

		return h
	}

	return m
}
