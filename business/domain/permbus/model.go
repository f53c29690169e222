package permbus

import (
	"time"

	"github.com/google/uuid"
)

// Permission represents an entry in the global permission catalog. The
// catalog is shared by all tenants; only the assignments below are scoped.
type Permission struct {
	ID          uuid.UUID
	Name        string
	Description string
	IsSystem    bool
}

// NewPermission contains information needed to create a catalog entry.
type NewPermission struct {
	Name        string
	Description string
}

// Assignment links a user to a role. The tenant id is denormalized from the
// role so permission checks never need an extra join to find the boundary.
type Assignment struct {
	UserID    uuid.UUID
	RoleID    uuid.UUID
	TenantID  uuid.UUID
	CreatedAt time.Time
}

// Grant links a role to a permission, denormalized the same way.
type Grant struct {
	RoleID       uuid.UUID
	PermissionID uuid.UUID
	TenantID     uuid.UUID
	CreatedAt    time.Time
}

// GrantRule is a grant joined with its permission name, used to warm the
// permission cache at startup.
type GrantRule struct {
	RoleID     uuid.UUID
	TenantID   uuid.UUID
	Permission string
}
