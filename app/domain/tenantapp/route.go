package tenantapp

import (
	"net/http"

	"github.com/getorbital/orbital/app/sdk/auth"
	"github.com/getorbital/orbital/app/sdk/mid"
	"github.com/getorbital/orbital/business/domain/tenantbus"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/business/sdk/unitofwork"
	"github.com/getorbital/orbital/business/sdk/web"
	"github.com/getorbital/orbital/foundation/logger"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log       *logger.Logger
	Auth      *auth.Auth
	Resolver  *tenancy.Resolver
	UOW       *unitofwork.Factory
	TenantBus *tenantbus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	tenant := mid.Tenant(cfg.Resolver)
	system := mid.AuthorizeSystem()
	tran := mid.Transaction(cfg.Log, cfg.UOW)

	api := newApp(cfg.TenantBus)

	app.HandlerFunc(http.MethodGet, version, "/tenants", api.query, authen, tenant, system)
	app.HandlerFunc(http.MethodGet, version, "/tenants/{tenant_id}", api.queryByID, authen, tenant, system)
	app.HandlerFunc(http.MethodPost, version, "/tenants", api.create, authen, tenant, system, tran)
	app.HandlerFunc(http.MethodPut, version, "/tenants/{tenant_id}", api.update, authen, tenant, system, tran)
	app.HandlerFunc(http.MethodDelete, version, "/tenants/{tenant_id}", api.delete, authen, tenant, system, tran)
}
