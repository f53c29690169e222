package permapp

import (
	"encoding/json"
	"fmt"

	"github.com/getorbital/orbital/app/sdk/errs"
	"github.com/getorbital/orbital/business/domain/permbus"
)

// Permission represents an entry in the permission catalog.
type Permission struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsSystem    bool   `json:"isSystem"`
}

// Encode implements the encoder interface.
func (app Permission) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

func toAppPermission(bus permbus.Permission) Permission {
	return Permission{
		ID:          bus.ID.String(),
		Name:        bus.Name,
		Description: bus.Description,
		IsSystem:    bus.IsSystem,
	}
}

// Permissions is a collection of catalog entries for encoding.
type Permissions []Permission

// Encode implements the encoder interface.
func (app Permissions) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

func toAppPermissions(perms []permbus.Permission) Permissions {
	app := make(Permissions, len(perms))
	for i, p := range perms {
		app[i] = toAppPermission(p)
	}

	return app
}

// NewPermission defines the data needed to add a catalog entry.
type NewPermission struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// Decode implements the decoder interface.
func (app *NewPermission) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewPermission) Validate() error {
	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

func toBusNewPermission(app NewPermission) permbus.NewPermission {
	return permbus.NewPermission{
		Name:        app.Name,
		Description: app.Description,
	}
}
