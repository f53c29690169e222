// Package userapp maintains the app layer api for the user domain.
package userapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/getorbital/orbital/app/sdk/errs"
	"github.com/getorbital/orbital/app/sdk/mid"
	"github.com/getorbital/orbital/app/sdk/query"
	"github.com/getorbital/orbital/business/domain/permbus"
	"github.com/getorbital/orbital/business/domain/userbus"
	"github.com/getorbital/orbital/business/sdk/order"
	"github.com/getorbital/orbital/business/sdk/page"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/business/sdk/web"
	"github.com/google/uuid"
)

type app struct {
	userBus *userbus.Core
	permBus *permbus.Core
}

func newApp(userBus *userbus.Core, permBus *permbus.Core) *app {
	return &app{
		userBus: userBus,
		permBus: permBus,
	}
}

func (a *app) create(ctx context.Context, r *http.Request) web.Encoder {
	var app NewUser
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	uow, err := mid.GetUOW(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "uow missing in context: %s", err)
	}

	nu, err := toBusNewUser(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	usr, err := uow.Users().Create(ctx, uow.Scope(), nu)
	if err != nil {
		switch {
		case errors.Is(err, userbus.ErrUniqueUsername):
			return errs.New(errs.Aborted, userbus.ErrUniqueUsername)
		case errors.Is(err, userbus.ErrUniqueEmail):
			return errs.New(errs.Aborted, userbus.ErrUniqueEmail)
		default:
			return errs.Errorf(errs.InternalOnlyLog, "create: usr[%+v]: %s", app.Username, err)
		}
	}

	return toAppUser(usr)
}

func (a *app) update(ctx context.Context, r *http.Request) web.Encoder {
	var app UpdateUser
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	uow, err := mid.GetUOW(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "uow missing in context: %s", err)
	}

	uu, err := toBusUpdateUser(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	usr, err := a.lookup(ctx, uow.Scope(), r, uow.Users())
	if err != nil {
		return errs.NewError(err)
	}

	updUsr, err := uow.Users().Update(ctx, uow.Scope(), usr, uu)
	if err != nil {
		switch {
		case errors.Is(err, userbus.ErrUniqueEmail):
			return errs.New(errs.Aborted, userbus.ErrUniqueEmail)
		default:
			return errs.Errorf(errs.InternalOnlyLog, "update: userID[%s]: %s", usr.ID, err)
		}
	}

	return toAppUser(updUsr)
}

func (a *app) delete(ctx context.Context, r *http.Request) web.Encoder {
	uow, err := mid.GetUOW(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "uow missing in context: %s", err)
	}

	usr, err := a.lookup(ctx, uow.Scope(), r, uow.Users())
	if err != nil {
		return errs.NewError(err)
	}

	if err := uow.Users().Delete(ctx, uow.Scope(), usr); err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "delete: userID[%s]: %s", usr.ID, err)
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

	usrs, err := a.userBus.Query(ctx, scope, orderBy, pg)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "query: %s", err)
	}

	total, err := a.userBus.Count(ctx, scope)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "count: %s", err)
	}

	return query.NewResult(toAppUsers(usrs), total, pg)
}

func (a *app) queryByID(ctx context.Context, r *http.Request) web.Encoder {
	scope, err := mid.GetScope(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "scope missing in context: %s", err)
	}

	usr, err := a.lookup(ctx, scope, r, a.userBus)
	if err != nil {
		return errs.NewError(err)
	}

	return toAppUser(usr)
}

func (a *app) queryPermissions(ctx context.Context, r *http.Request) web.Encoder {
	scope, err := mid.GetScope(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "scope missing in context: %s", err)
	}

	usr, err := a.lookup(ctx, scope, r, a.userBus)
	if err != nil {
		return errs.NewError(err)
	}

	perms, err := a.permBus.QueryUserPermissions(ctx, scope, usr.ID)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "querypermissions: userID[%s]: %s", usr.ID, err)
	}

	return toAppPermissionNames(perms)
}

func (a *app) assignRole(ctx context.Context, r *http.Request) web.Encoder {
	uow, err := mid.GetUOW(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "uow missing in context: %s", err)
	}

	userID, err := uuid.Parse(web.Param(r, "user_id"))
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	roleID, err := uuid.Parse(web.Param(r, "role_id"))
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	if err := uow.Permissions().AssignRoleToUser(ctx, uow.Scope(), userID, roleID); err != nil {
		switch {
		case errors.Is(err, userbus.ErrNotFound), errors.Is(err, permbus.ErrNotFound):
			return errs.New(errs.NotFound, err)
		case errors.Is(err, tenancy.ErrTenantMismatch):
			return errs.New(errs.PermissionDenied, err)
		default:
			return errs.Errorf(errs.InternalOnlyLog, "assignrole: userID[%s] roleID[%s]: %s", userID, roleID, err)
		}
	}

	return web.NewNoResponse()
}

func (a *app) removeRole(ctx context.Context, r *http.Request) web.Encoder {
	uow, err := mid.GetUOW(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "uow missing in context: %s", err)
	}

	userID, err := uuid.Parse(web.Param(r, "user_id"))
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	roleID, err := uuid.Parse(web.Param(r, "role_id"))
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	if err := uow.Permissions().RemoveRoleFromUser(ctx, uow.Scope(), userID, roleID); err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "removerole: userID[%s] roleID[%s]: %s", userID, roleID, err)
	}

	return web.NewNoResponse()
}

func (a *app) lookup(ctx context.Context, scope tenancy.Scope, r *http.Request, userBus *userbus.Core) (userbus.User, error) {
	id := web.Param(r, "user_id")

	userID, err := uuid.Parse(id)
	if err != nil {
		return userbus.User{}, errs.New(errs.InvalidArgument, errors.New("invalid user id"))
	}

	usr, err := userBus.QueryByID(ctx, scope, userID)
	if err != nil {
		switch {
		case errors.Is(err, userbus.ErrNotFound):
			return userbus.User{}, errs.New(errs.NotFound, err)
		default:
			return userbus.User{}, errs.Errorf(errs.InternalOnlyLog, "querybyid: userID[%s]: %s", userID, err)
		}
	}

	return usr, nil
}
