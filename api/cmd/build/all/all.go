// Package all binds all the routes into the specified app.
package all

import (
	"github.com/getorbital/orbital/app/domain/authapp"
	"github.com/getorbital/orbital/app/domain/checkapp"
	"github.com/getorbital/orbital/app/domain/permapp"
	"github.com/getorbital/orbital/app/domain/roleapp"
	"github.com/getorbital/orbital/app/domain/sectionapp"
	"github.com/getorbital/orbital/app/domain/tenantapp"
	"github.com/getorbital/orbital/app/domain/userapp"
	"github.com/getorbital/orbital/app/sdk/mux"
	"github.com/getorbital/orbital/business/sdk/web"
)

// Routes constructs the add value which provides the implementation of
// RouteAdder for specifying what routes to bind to this instance.
func Routes() add {
	return add{}
}

type add struct{}

func (add) Add(app *web.App, cfg mux.Config) {
	checkapp.Routes(app, checkapp.Config{
		Build: cfg.Build,
		Log:   cfg.Log,
		DB:    cfg.DB,
	})

	authapp.Routes(app, authapp.Config{
		Auth:      cfg.AuthConfig.Auth,
		Resolver:  cfg.Resolver,
		UserBus:   cfg.BusConfig.UserBus,
		ActiveKID: cfg.AuthConfig.ActiveKID,
	})

	tenantapp.Routes(app, tenantapp.Config{
		Log:       cfg.Log,
		Auth:      cfg.AuthConfig.Auth,
		Resolver:  cfg.Resolver,
		UOW:       cfg.BusConfig.UOW,
		TenantBus: cfg.BusConfig.TenantBus,
	})

	userapp.Routes(app, userapp.Config{
		Log:      cfg.Log,
		Auth:     cfg.AuthConfig.Auth,
		Resolver: cfg.Resolver,
		UOW:      cfg.BusConfig.UOW,
		UserBus:  cfg.BusConfig.UserBus,
		PermBus:  cfg.BusConfig.PermBus,
	})

	roleapp.Routes(app, roleapp.Config{
		Log:      cfg.Log,
		Auth:     cfg.AuthConfig.Auth,
		Resolver: cfg.Resolver,
		UOW:      cfg.BusConfig.UOW,
		RoleBus:  cfg.BusConfig.RoleBus,
		PermBus:  cfg.BusConfig.PermBus,
	})

	permapp.Routes(app, permapp.Config{
		Log:      cfg.Log,
		Auth:     cfg.AuthConfig.Auth,
		Resolver: cfg.Resolver,
		UOW:      cfg.BusConfig.UOW,
		PermBus:  cfg.BusConfig.PermBus,
	})

	sectionapp.Routes(app, sectionapp.Config{
		Log:        cfg.Log,
		Auth:       cfg.AuthConfig.Auth,
		Resolver:   cfg.Resolver,
		UOW:        cfg.BusConfig.UOW,
		SectionBus: cfg.BusConfig.SectionBus,
		PermBus:    cfg.BusConfig.PermBus,
	})
}
