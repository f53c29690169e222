package roleapp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/getorbital/orbital/app/sdk/errs"
	"github.com/getorbital/orbital/business/domain/permbus"
	"github.com/getorbital/orbital/business/domain/rolebus"
	"github.com/getorbital/orbital/business/types/name"
)

// Role represents information about an individual role.
type Role struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenantId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// Encode implements the encoder interface.
func (app Role) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

func toAppRole(bus rolebus.Role) Role {
	return Role{
		ID:          bus.ID.String(),
		TenantID:    bus.TenantID.String(),
		Name:        bus.Name.String(),
		Description: bus.Description,
		Enabled:     bus.Enabled,
		CreatedAt:   bus.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   bus.UpdatedAt.Format(time.RFC3339),
	}
}

func toAppRoles(roles []rolebus.Role) []Role {
	app := make([]Role, len(roles))
	for i, rl := range roles {
		app[i] = toAppRole(rl)
	}

	return app
}

// Permissions is the set of permission names granted to a role.
type Permissions struct {
	Permissions []string `json:"permissions"`
}

// Encode implements the encoder interface.
func (app Permissions) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

func toAppPermissionNames(perms []permbus.Permission) Permissions {
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = p.Name
	}

	return Permissions{
		Permissions: names,
	}
}

// NewRole defines the data needed to add a new role.
type NewRole struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// Decode implements the decoder interface.
func (app *NewRole) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewRole) Validate() error {
	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

func toBusNewRole(app NewRole) (rolebus.NewRole, error) {
	nm, err := name.Parse(app.Name)
	if err != nil {
		return rolebus.NewRole{}, fmt.Errorf("parse: %w", err)
	}

	bus := rolebus.NewRole{
		Name:        nm,
		Description: app.Description,
	}

	return bus, nil
}

// UpdateRole defines the data needed to update a role.
type UpdateRole struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Enabled     *bool   `json:"enabled"`
}

// Decode implements the decoder interface.
func (app *UpdateRole) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

func toBusUpdateRole(app UpdateRole) (rolebus.UpdateRole, error) {
	var bus rolebus.UpdateRole

	if app.Name != nil {
		nm, err := name.Parse(*app.Name)
		if err != nil {
			return rolebus.UpdateRole{}, fmt.Errorf("parse: %w", err)
		}
		bus.Name = &nm
	}

	bus.Description = app.Description
	bus.Enabled = app.Enabled

	return bus, nil
}
