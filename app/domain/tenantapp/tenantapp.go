// Package tenantapp maintains the app layer api for the tenant domain. Every
// route in the group runs under the system scope.
package tenantapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/getorbital/orbital/app/sdk/errs"
	"github.com/getorbital/orbital/app/sdk/mid"
	"github.com/getorbital/orbital/business/domain/tenantbus"
	"github.com/getorbital/orbital/business/sdk/web"
	"github.com/google/uuid"
)

type app struct {
	tenantBus *tenantbus.Core
}

func newApp(tenantBus *tenantbus.Core) *app {
	return &app{
		tenantBus: tenantBus,
	}
}

func (a *app) create(ctx context.Context, r *http.Request) web.Encoder {
	var app NewTenant
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	uow, err := mid.GetUOW(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "uow missing in context: %s", err)
	}

	nt, err := toBusNewTenant(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	t, err := uow.Tenants().Create(ctx, uow.Scope(), nt)
	if err != nil {
		switch {
		case errors.Is(err, tenantbus.ErrUniqueSlug):
			return errs.New(errs.Aborted, tenantbus.ErrUniqueSlug)
		case errors.Is(err, tenantbus.ErrAccessDenied):
			return errs.New(errs.PermissionDenied, tenantbus.ErrAccessDenied)
		default:
			return errs.Errorf(errs.InternalOnlyLog, "create: slug[%s]: %s", app.Slug, err)
		}
	}

	return toAppTenant(t)
}

func (a *app) update(ctx context.Context, r *http.Request) web.Encoder {
	var app UpdateTenant
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	uow, err := mid.GetUOW(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "uow missing in context: %s", err)
	}

	ut, err := toBusUpdateTenant(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	t, err := a.lookup(ctx, r, uow.Tenants())
	if err != nil {
		return errs.NewError(err)
	}

	updT, err := uow.Tenants().Update(ctx, uow.Scope(), t, ut)
	if err != nil {
		switch {
		case errors.Is(err, tenantbus.ErrAccessDenied):
			return errs.New(errs.PermissionDenied, tenantbus.ErrAccessDenied)
		default:
			return errs.Errorf(errs.InternalOnlyLog, "update: tenantID[%s]: %s", t.ID, err)
		}
	}

	return toAppTenant(updT)
}

func (a *app) delete(ctx context.Context, r *http.Request) web.Encoder {
	uow, err := mid.GetUOW(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "uow missing in context: %s", err)
	}

	t, err := a.lookup(ctx, r, uow.Tenants())
	if err != nil {
		return errs.NewError(err)
	}

	if err := uow.Tenants().Delete(ctx, uow.Scope(), t); err != nil {
		switch {
		case errors.Is(err, tenantbus.ErrAccessDenied):
			return errs.New(errs.PermissionDenied, tenantbus.ErrAccessDenied)
		default:
			return errs.Errorf(errs.InternalOnlyLog, "delete: tenantID[%s]: %s", t.ID, err)
		}
	}

	return web.NewNoResponse()
}

func (a *app) query(ctx context.Context, r *http.Request) web.Encoder {
	scope, err := mid.GetScope(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "scope missing in context: %s", err)
	}

	tenants, err := a.tenantBus.Query(ctx, scope)
	if err != nil {
		if errors.Is(err, tenantbus.ErrAccessDenied) {
			return errs.New(errs.PermissionDenied, tenantbus.ErrAccessDenied)
		}
		return errs.Errorf(errs.InternalOnlyLog, "query: %s", err)
	}

	return toAppTenants(tenants)
}

func (a *app) queryByID(ctx context.Context, r *http.Request) web.Encoder {
	t, err := a.lookup(ctx, r, a.tenantBus)
	if err != nil {
		return errs.NewError(err)
	}

	return toAppTenant(t)
}

func (a *app) lookup(ctx context.Context, r *http.Request, tenantBus *tenantbus.Core) (tenantbus.Tenant, error) {
	id := web.Param(r, "tenant_id")

	tenantID, err := uuid.Parse(id)
	if err != nil {
		return tenantbus.Tenant{}, errs.New(errs.InvalidArgument, errors.New("invalid tenant id"))
	}

	t, err := tenantBus.QueryByID(ctx, tenantID)
	if err != nil {
		switch {
		case errors.Is(err, tenantbus.ErrNotFound):
			return tenantbus.Tenant{}, errs.New(errs.NotFound, err)
		default:
			return tenantbus.Tenant{}, errs.Errorf(errs.InternalOnlyLog, "querybyid: tenantID[%s]: %s", tenantID, err)
		}
	}

	return t, nil
}
