package sectionbus

import (
	"time"

	"github.com/getorbital/orbital/business/types/name"
	"github.com/google/uuid"
)

// Section represents a tenant-scoped section definition.
type Section struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	Name           name.Name
	NormalizedName string
	Description    string
	Enabled        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewSection contains information needed to create a new section. TenantID
// is only honored under the system scope.
type NewSection struct {
	TenantID    uuid.UUID
	Name        name.Name
	Description string
}

// UpdateSection contains information needed to update a section.
type UpdateSection struct {
	Name        *name.Name
	Description *string
	Enabled     *bool
}
