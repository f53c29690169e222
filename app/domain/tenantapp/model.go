package tenantapp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/getorbital/orbital/app/sdk/errs"
	"github.com/getorbital/orbital/business/domain/tenantbus"
	"github.com/getorbital/orbital/business/types/name"
	"github.com/getorbital/orbital/business/types/slug"
)

// Tenant represents information about an individual tenant.
type Tenant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Enabled   bool   `json:"enabled"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Encode implements the encoder interface.
func (app Tenant) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

func toAppTenant(bus tenantbus.Tenant) Tenant {
	return Tenant{
		ID:        bus.ID.String(),
		Name:      bus.Name.String(),
		Slug:      bus.Slug.String(),
		Enabled:   bus.Enabled,
		CreatedAt: bus.CreatedAt.Format(time.RFC3339),
		UpdatedAt: bus.UpdatedAt.Format(time.RFC3339),
	}
}

// Tenants is a collection of tenants for encoding.
type Tenants []Tenant

// Encode implements the encoder interface.
func (app Tenants) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

func toAppTenants(tenants []tenantbus.Tenant) Tenants {
	app := make(Tenants, len(tenants))
	for i, t := range tenants {
		app[i] = toAppTenant(t)
	}

	return app
}

// NewTenant defines the data needed to add a new tenant.
type NewTenant struct {
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug" validate:"required"`
}

// Decode implements the decoder interface.
func (app *NewTenant) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewTenant) Validate() error {
	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

func toBusNewTenant(app NewTenant) (tenantbus.NewTenant, error) {
	nm, err := name.Parse(app.Name)
	if err != nil {
		return tenantbus.NewTenant{}, fmt.Errorf("parse: %w", err)
	}

	sl, err := slug.Parse(app.Slug)
	if err != nil {
		return tenantbus.NewTenant{}, fmt.Errorf("parse: %w", err)
	}

	bus := tenantbus.NewTenant{
		Name: nm,
		Slug: sl,
	}

	return bus, nil
}

// UpdateTenant defines the data needed to update a tenant.
type UpdateTenant struct {
	Name    *string `json:"name"`
	Enabled *bool   `json:"enabled"`
}

// Decode implements the decoder interface.
func (app *UpdateTenant) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

func toBusUpdateTenant(app UpdateTenant) (tenantbus.UpdateTenant, error) {
	var bus tenantbus.UpdateTenant

	if app.Name != nil {
		nm, err := name.Parse(*app.Name)
		if err != nil {
			return tenantbus.UpdateTenant{}, fmt.Errorf("parse: %w", err)
		}
		bus.Name = &nm
	}

	bus.Enabled = app.Enabled

	return bus, nil
}
