package rolebus

import (
	"time"

	"github.com/getorbital/orbital/business/types/name"
	"github.com/google/uuid"
)

// Role represents a tenant-scoped grouping of permissions.
type Role struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	Name           name.Name
	NormalizedName string
	Description    string
	Enabled        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewRole contains information needed to create a new role. TenantID is only
// honored under the system scope.
type NewRole struct {
	TenantID    uuid.UUID
	Name        name.Name
	Description string
}

// UpdateRole contains information needed to update a role.
type UpdateRole struct {
	Name        *name.Name
	Description *string
	Enabled     *bool
}
