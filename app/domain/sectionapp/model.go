package sectionapp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/getorbital/orbital/app/sdk/errs"
	"github.com/getorbital/orbital/business/domain/sectionbus"
	"github.com/getorbital/orbital/business/types/name"
)

// Section represents information about an individual section.
type Section struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenantId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// Encode implements the encoder interface.
func (app Section) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

func toAppSection(bus sectionbus.Section) Section {
	return Section{
		ID:          bus.ID.String(),
		TenantID:    bus.TenantID.String(),
		Name:        bus.Name.String(),
		Description: bus.Description,
		Enabled:     bus.Enabled,
		CreatedAt:   bus.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   bus.UpdatedAt.Format(time.RFC3339),
	}
}

func toAppSections(sections []sectionbus.Section) []Section {
	app := make([]Section, len(sections))
	for i, s := range sections {
		app[i] = toAppSection(s)
	}

	return app
}

// NewSection defines the data needed to add a new section.
type NewSection struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// Decode implements the decoder interface.
func (app *NewSection) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewSection) Validate() error {
	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

func toBusNewSection(app NewSection) (sectionbus.NewSection, error) {
	nm, err := name.Parse(app.Name)
	if err != nil {
		return sectionbus.NewSection{}, fmt.Errorf("parse: %w", err)
	}

	bus := sectionbus.NewSection{
		Name:        nm,
		Description: app.Description,
	}

	return bus, nil
}

// UpdateSection defines the data needed to update a section.
type UpdateSection struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Enabled     *bool   `json:"enabled"`
}

// Decode implements the decoder interface.
func (app *UpdateSection) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

func toBusUpdateSection(app UpdateSection) (sectionbus.UpdateSection, error) {
	var bus sectionbus.UpdateSection

	if app.Name != nil {
		nm, err := name.Parse(*app.Name)
		if err != nil {
			return sectionbus.UpdateSection{}, fmt.Errorf("parse: %w", err)
		}
		bus.Name = &nm
	}

	bus.Description = app.Description
	bus.Enabled = app.Enabled

	return bus, nil
}
