package permapp

import (
	"net/http"

	"github.com/getorbital/orbital/app/sdk/auth"
	"github.com/getorbital/orbital/app/sdk/mid"
	"github.com/getorbital/orbital/business/domain/permbus"
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
	PermBus  *permbus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	tenant := mid.Tenant(cfg.Resolver)
	system := mid.AuthorizeSystem()
	tran := mid.Transaction(cfg.Log, cfg.UOW)

	read := mid.Authorize(cfg.PermBus, "role.read")

	api := newApp(cfg.PermBus)

	app.HandlerFunc(http.MethodGet, version, "/permissions", api.query, authen, tenant, read)
	app.HandlerFunc(http.MethodPost, version, "/permissions", api.create, authen, tenant, system, tran)
	app.HandlerFunc(http.MethodDelete, version, "/permissions/{name}", api.delete, authen, tenant, system, tran)
}
