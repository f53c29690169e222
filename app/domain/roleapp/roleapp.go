// Package roleapp maintains the app layer api for the role domain.
package roleapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/getorbital/orbital/app/sdk/errs"
	"github.com/getorbital/orbital/app/sdk/mid"
	"github.com/getorbital/orbital/app/sdk/query"
	"github.com/getorbital/orbital/business/domain/permbus"
	"github.com/getorbital/orbital/business/domain/rolebus"
	"github.com/getorbital/orbital/business/sdk/order"
	"github.com/getorbital/orbital/business/sdk/page"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/business/sdk/web"
	"github.com/google/uuid"
)

type app struct {
	roleBus *rolebus.Core
	permBus *permbus.Core
}

func newApp(roleBus *rolebus.Core, permBus *permbus.Core) *app {
	return &app{
		roleBus: roleBus,
		permBus: permBus,
	}
}

func (a *app) create(ctx context.Context, r *http.Request) web.Encoder {
	var app NewRole
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	uow, err := mid.GetUOW(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "uow missing in context: %s", err)
	}

	nr, err := toBusNewRole(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	rl, err := uow.Roles().Create(ctx, uow.Scope(), nr)
	if err != nil {
		switch {
		case errors.Is(err, rolebus.ErrUniqueName):
			return errs.New(errs.Aborted, rolebus.ErrUniqueName)
		default:
			return errs.Errorf(errs.InternalOnlyLog, "create: role[%s]: %s", app.Name, err)
		}
	}

	return toAppRole(rl)
}

func (a *app) update(ctx context.Context, r *http.Request) web.Encoder {
	var app UpdateRole
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	uow, err := mid.GetUOW(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "uow missing in context: %s", err)
	}

	ur, err := toBusUpdateRole(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	rl, err := a.lookup(ctx, uow.Scope(), r, uow.Roles())
	if err != nil {
		return errs.NewError(err)
	}

	updRl, err := uow.Roles().Update(ctx, uow.Scope(), rl, ur)
	if err != nil {
		switch {
		case errors.Is(err, rolebus.ErrUniqueName):
			return errs.New(errs.Aborted, rolebus.ErrUniqueName)
		default:
			return errs.Errorf(errs.InternalOnlyLog, "update: roleID[%s]: %s", rl.ID, err)
		}
	}

	return toAppRole(updRl)
}

func (a *app) delete(ctx context.Context, r *http.Request) web.Encoder {
	uow, err := mid.GetUOW(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "uow missing in context: %s", err)
	}

	rl, err := a.lookup(ctx, uow.Scope(), r, uow.Roles())
	if err != nil {
		return errs.NewError(err)
	}

	if err := uow.Roles().Delete(ctx, uow.Scope(), rl); err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "delete: roleID[%s]: %s", rl.ID, err)
	}

	return web.NewNoResponse()
}

func (a *app) query(ctx context.Context, r *http.Request) web.Encoder {
	scope, err := mid.GetScope(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "scope missing in context: %s", err)
	}

	values := r.URL.Query()

	pg, err := page.Parse(values.Get("page"), values.Get("rows"))
	if err != nil {
		return errs.NewFieldErrors("page", err)
	}

	orderBy, err := order.Parse(orderByFields, values.Get("orderBy"), defaultOrderBy)
	if err != nil {
		return errs.NewFieldErrors("orderBy", err)
	}

	roles, err := a.roleBus.Query(ctx, scope, orderBy, pg)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "query: %s", err)
	}

	total, err := a.roleBus.Count(ctx, scope)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "count: %s", err)
	}

	return query.NewResult(toAppRoles(roles), total, pg)
}

func (a *app) queryByID(ctx context.Context, r *http.Request) web.Encoder {
	scope, err := mid.GetScope(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "scope missing in context: %s", err)
	}

	rl, err := a.lookup(ctx, scope, r, a.roleBus)
	if err != nil {
		return errs.NewError(err)
	}

	return toAppRole(rl)
}

func (a *app) queryPermissions(ctx context.Context, r *http.Request) web.Encoder {
	scope, err := mid.GetScope(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "scope missing in context: %s", err)
	}

	rl, err := a.lookup(ctx, scope, r, a.roleBus)
	if err != nil {
		return errs.NewError(err)
	}

	perms, err := a.permBus.QueryRolePermissions(ctx, scope, rl.ID)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "querypermissions: roleID[%s]: %s", rl.ID, err)
	}

	return toAppPermissionNames(perms)
}

func (a *app) grantPermission(ctx context.Context, r *http.Request) web.Encoder {
	uow, err := mid.GetUOW(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "uow missing in context: %s", err)
	}

	roleID, err := uuid.Parse(web.Param(r, "role_id"))
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	permID, err := uuid.Parse(web.Param(r, "permission_id"))
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	if err := uow.Permissions().AssignPermissionToRole(ctx, uow.Scope(), roleID, permID); err != nil {
		switch {
		case errors.Is(err, rolebus.ErrNotFound), errors.Is(err, permbus.ErrNotFound):
			return errs.New(errs.NotFound, err)
		case errors.Is(err, tenancy.ErrTenantMismatch):
			return errs.New(errs.PermissionDenied, err)
		default:
			return errs.Errorf(errs.InternalOnlyLog, "grantpermission: roleID[%s] permID[%s]: %s", roleID, permID, err)
		}
	}

	return web.NewNoResponse()
}

func (a *app) revokePermission(ctx context.Context, r *http.Request) web.Encoder {
	uow, err := mid.GetUOW(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "uow missing in context: %s", err)
	}

	roleID, err := uuid.Parse(web.Param(r, "role_id"))
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	permID, err := uuid.Parse(web.Param(r, "permission_id"))
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	if err := uow.Permissions().RemovePermissionFromRole(ctx, uow.Scope(), roleID, permID); err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "revokepermission: roleID[%s] permID[%s]: %s", roleID, permID, err)
	}

	return web.NewNoResponse()
}

func (a *app) lookup(ctx context.Context, scope tenancy.Scope, r *http.Request, roleBus *rolebus.Core) (rolebus.Role, error) {
	id := web.Param(r, "role_id")

	roleID, err := uuid.Parse(id)
	if err != nil {
		return rolebus.Role{}, errs.New(errs.InvalidArgument, errors.New("invalid role id"))
	}

	rl, err := roleBus.QueryByID(ctx, scope, roleID)
	if err != nil {
		switch {
		case errors.Is(err, rolebus.ErrNotFound):
			return rolebus.Role{}, errs.New(errs.NotFound, err)
		default:
			return rolebus.Role{}, errs.Errorf(errs.InternalOnlyLog, "querybyid: roleID[%s]: %s", roleID, err)
		}
	}

	return rl, nil
}
