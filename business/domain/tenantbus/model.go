package tenantbus

import (
	"time"

	"github.com/getorbital/orbital/business/types/name"
	"github.com/getorbital/orbital/business/types/slug"
	"github.com/google/uuid"
)

// Tenant represents a client organization sharing the deployment.
type Tenant struct {
	ID        uuid.UUID
	Name      name.Name
	Slug      slug.Slug
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTenant contains information needed to create a new tenant.
type NewTenant struct {
	Name name.Name
	Slug slug.Slug
}

// UpdateTenant contains information needed to update a tenant.
type UpdateTenant struct {
	Name    *name.Name
	Enabled *bool
}
