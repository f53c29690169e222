package userapp

import (
	"net/http"

	"github.com/getorbital/orbital/app/sdk/auth"
	"github.com/getorbital/orbital/app/sdk/mid"
	"github.com/getorbital/orbital/business/domain/permbus"
	"github.com/getorbital/orbital/business/domain/userbus"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/business/sdk/unitofwork"
	"github.com/getorbital/orbital/business/sdk/web"
	"github.com/getorbital/orbital/foundation/logger"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log      *logger.Logger
	Auth     *auth.Auth
	Resolver *tenancy.Resolver
	UOW      *unitofwork.Factory
	UserBus  *userbus.Core
	PermBus  *permbus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	tenant := mid.Tenant(cfg.Resolver)
	tran := mid.Transaction(cfg.Log, cfg.UOW)

	read := mid.Authorize(cfg.PermBus, "user.read")
	manage := mid.Authorize(cfg.PermBus, "user.manage")
	roles := mid.Authorize(cfg.PermBus, "role.manage")

	api := newApp(cfg.UserBus, cfg.PermBus)

	app.HandlerFunc(http.MethodGet, version, "/users", api.query, authen, tenant, read)
	app.HandlerFunc(http.MethodGet, version, "/users/{user_id}", api.queryByID, authen, tenant, read)
	app.HandlerFunc(http.MethodGet, version, "/users/{user_id}/permissions", api.queryPermissions, authen, tenant, read)
	app.HandlerFunc(http.MethodPost, version, "/users", api.create, authen, tenant, manage, tran)
	app.HandlerFunc(http.MethodPut, version, "/users/{user_id}", api.update, authen, tenant, manage, tran)
	app.HandlerFunc(http.MethodDelete, version, "/users/{user_id}", api.delete, authen, tenant, manage, tran)
	app.HandlerFunc(http.MethodPost, version, "/users/{user_id}/roles/{role_id}", api.assignRole, authen, tenant, roles, tran)
	app.HandlerFunc(http.MethodDelete, version, "/users/{user_id}/roles/{role_id}", api.removeRole, authen, tenant, roles, tran)
}
