package roleapp

import (
	"net/http"

	"github.com/getorbital/orbital/app/sdk/auth"
	"github.com/getorbital/orbital/app/sdk/mid"
	"github.com/getorbital/orbital/business/domain/permbus"
	"github.com/getorbital/orbital/business/domain/rolebus"
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
	RoleBus  *rolebus.Core
	PermBus  *permbus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	tenant := mid.Tenant(cfg.Resolver)
	tran := mid.Transaction(cfg.Log, cfg.UOW)

	read := mid.Authorize(cfg.PermBus, "role.read")
	manage := mid.Authorize(cfg.PermBus, "role.manage")

	api := newApp(cfg.RoleBus, cfg.PermBus)

	app.HandlerFunc(http.MethodGet, version, "/roles", api.query, authen, tenant, read)
	app.HandlerFunc(http.MethodGet, version, "/roles/{role_id}", api.queryByID, authen, tenant, read)
	app.HandlerFunc(http.MethodGet, version, "/roles/{role_id}/permissions", api.queryPermissions, authen, tenant, read)
	app.HandlerFunc(http.MethodPost, version, "/roles", api.create, authen, tenant, manage, tran)
	app.HandlerFunc(http.MethodPut, version, "/roles/{role_id}", api.update, authen, tenant, manage, tran)
	app.HandlerFunc(http.MethodDelete, version, "/roles/{role_id}", api.delete, authen, tenant, manage, tran)
	app.HandlerFunc(http.MethodPost, version, "/roles/{role_id}/permissions/{permission_id}", api.grantPermission, authen, tenant, manage, tran)
	app.HandlerFunc(http.MethodDelete, version, "/roles/{role_id}/permissions/{permission_id}", api.revokePermission, authen, tenant, manage, tran)
}
