package authapp

import (
	"net/http"

	"github.com/getorbital/orbital/app/sdk/auth"
	"github.com/getorbital/orbital/app/sdk/mid"
	"github.com/getorbital/orbital/business/domain/userbus"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/business/sdk/web"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Auth      *auth.Auth
	Resolver  *tenancy.Resolver
	UserBus   *userbus.Core
	ActiveKID string
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	tenant := mid.Tenant(cfg.Resolver)

	api := newApp(cfg.Auth, cfg.UserBus, cfg.ActiveKID)

	app.HandlerFunc(http.MethodPost, version, "/auth/token", api.token, tenant)
}
