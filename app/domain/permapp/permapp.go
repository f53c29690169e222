// Package permapp maintains the app layer api for the permission catalog.
// The catalog is global; creating and deleting entries requires the system
// scope while listing is open to any authorized caller.
package permapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/getorbital/orbital/app/sdk/errs"
	"github.com/getorbital/orbital/app/sdk/mid"
	"github.com/getorbital/orbital/business/domain/permbus"
	"github.com/getorbital/orbital/business/sdk/web"
)

type app struct {
	permBus *permbus.Core
}

func newApp(permBus *permbus.Core) *app {
	return &app{
		permBus: permBus,
	}
}

func (a *app) create(ctx context.Context, r *http.Request) web.Encoder {
	var app NewPermission
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	uow, err := mid.GetUOW(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "uow missing in context: %s", err)
	}

	p, err := uow.Permissions().CreatePermission(ctx, uow.Scope(), toBusNewPermission(app))
	if err != nil {
		switch {
		case errors.Is(err, permbus.ErrUniqueName):
			return errs.New(errs.Aborted, permbus.ErrUniqueName)
		case errors.Is(err, permbus.ErrInvalidName):
			return errs.New(errs.InvalidArgument, permbus.ErrInvalidName)
		case errors.Is(err, permbus.ErrAccessDenied):
			return errs.New(errs.PermissionDenied, permbus.ErrAccessDenied)
		default:
			return errs.Errorf(errs.InternalOnlyLog, "create: perm[%s]: %s", app.Name, err)
		}
	}

	return toAppPermission(p)
}

func (a *app) delete(ctx context.Context, r *http.Request) web.Encoder {
	uow, err := mid.GetUOW(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "uow missing in context: %s", err)
	}

	permName := web.Param(r, "name")

	p, err := uow.Permissions().QueryPermissionByName(ctx, permName)
	if err != nil {
		switch {
		case errors.Is(err, permbus.ErrNotFound):
			return errs.New(errs.NotFound, err)
		default:
			return errs.Errorf(errs.InternalOnlyLog, "querybyname: perm[%s]: %s", permName, err)
		}
	}

	if err := uow.Permissions().DeletePermission(ctx, uow.Scope(), p); err != nil {
		switch {
		case errors.Is(err, permbus.ErrSystemPermission):
			return errs.New(errs.FailedPrecondition, permbus.ErrSystemPermission)
		case errors.Is(err, permbus.ErrAccessDenied):
			return errs.New(errs.PermissionDenied, permbus.ErrAccessDenied)
		default:
			return errs.Errorf(errs.InternalOnlyLog, "delete: perm[%s]: %s", permName, err)
		}
	}

	return web.NewNoResponse()
}

func (a *app) query(ctx context.Context, r *http.Request) web.Encoder {
	perms, err := a.permBus.QueryPermissions(ctx)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "query: %s", err)
	}

	return toAppPermissions(perms)
}
