package permdb

import (
	"time"

	"github.com/getorbital/orbital/business/domain/permbus"
	"github.com/google/uuid"
)

// permissionDB represents the structure of the permission table in the
// database.
type permissionDB struct {
	ID          uuid.UUID `db:"permission_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	IsSystem    bool      `db:"is_system"`
}

func toDBPermission(bus permbus.Permission) permissionDB {
	return permissionDB{
		ID:          bus.ID,
		Name:        bus.Name,
		Description: bus.Description,
		IsSystem:    bus.IsSystem,
	}
}

func toBusPermission(db permissionDB) permbus.Permission {
	return permbus.Permission{
		ID:          db.ID,
		Name:        db.Name,
		Description: db.Description,
		IsSystem:    db.IsSystem,
	}
}

func toBusPermissions(dbs []permissionDB) []permbus.Permission {
	bus := make([]permbus.Permission, len(dbs))
	for i, db := range dbs {
		bus[i] = toBusPermission(db)
	}

	return bus
}

// assignmentDB represents the structure of the user_role table.
type assignmentDB struct {
	UserID    uuid.UUID `db:"user_id"`
	RoleID    uuid.UUID `db:"role_id"`
	TenantID  uuid.UUID `db:"tenant_id"`
	CreatedAt time.Time `db:"created_at"`
}

func toDBAssignment(bus permbus.Assignment) assignmentDB {
	return assignmentDB{
		UserID:    bus.UserID,
		RoleID:    bus.RoleID,
		TenantID:  bus.TenantID,
		CreatedAt: bus.CreatedAt.UTC(),
	}
}

func toBusAssignments(dbs []assignmentDB) []permbus.Assignment {
	bus := make([]permbus.Assignment, len(dbs))
	for i, db := range dbs {
		bus[i] = permbus.Assignment{
			UserID:    db.UserID,
			RoleID:    db.RoleID,
			TenantID:  db.TenantID,
			CreatedAt: db.CreatedAt,
		}
	}

	return bus
}

// grantDB represents the structure of the role_permission table.
type grantDB struct {
	RoleID       uuid.UUID `db:"role_id"`
	PermissionID uuid.UUID `db:"permission_id"`
	TenantID     uuid.UUID `db:"tenant_id"`
	CreatedAt    time.Time `db:"created_at"`
}

func toDBGrant(bus permbus.Grant) grantDB {
	return grantDB{
		RoleID:       bus.RoleID,
		PermissionID: bus.PermissionID,
		TenantID:     bus.TenantID,
		CreatedAt:    bus.CreatedAt.UTC(),
	}
}

// grantRuleDB is a grant joined with its permission name.
type grantRuleDB struct {
	RoleID     uuid.UUID `db:"role_id"`
	TenantID   uuid.UUID `db:"tenant_id"`
	Permission string    `db:"name"`
}

func toBusGrantRules(dbs []grantRuleDB) []permbus.GrantRule {
	bus := make([]permbus.GrantRule, len(dbs))
	for i, db := range dbs {
		bus[i] = permbus.GrantRule{
			RoleID:     db.RoleID,
			TenantID:   db.TenantID,
			Permission: db.Permission,
		}
	}

	return bus
}
