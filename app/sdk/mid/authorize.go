package mid

import (
	"context"
	"fmt"
	"net/http"

	"github.com/getorbital/orbital/app/sdk/errs"
	"github.com/getorbital/orbital/business/domain/permbus"
	"github.com/getorbital/orbital/business/sdk/web"
)

// Authorize verifies the authenticated subject holds the named permission
// inside the resolved scope. The check goes through the permission bus, so
// the hot path is answered by the permission cache.
func Authorize(permBus *permbus.Core, permission string) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			userID, err := GetUserID(ctx)
			if err != nil {
				return errs.New(errs.Unauthenticated, err)
			}

			scope, err := GetScope(ctx)
			if err != nil {
				return errs.New(errs.Internal, err)
			}

			has, err := permBus.UserHasPermission(ctx, scope, userID, permission)
			if err != nil {
				return errs.New(errs.Internal, err)
			}

			if !has {
				return errs.Newf(errs.PermissionDenied, "user[%s] does not hold permission[%s]", userID, permission)
			}

			return next(ctx, r)
		}

		return h
	}

	return m
}

// AuthorizeSystem verifies the resolved scope is the system scope. Used for
// the tenant lifecycle surface.
func AuthorizeSystem() web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			scope, err := GetScope(ctx)
			if err != nil {
				return errs.New(errs.Internal, err)
			}

			if !scope.IsSystem() {
				return errs.New(errs.PermissionDenied, fmt.Errorf("scope[%s] is not the system scope", scope))
			}

			return next(ctx, r)
		}

		return h
	}

	return m
}
