package roledb

import (
	"fmt"
	"time"

	"github.com/getorbital/orbital/business/domain/rolebus"
	"github.com/getorbital/orbital/business/types/name"
	"github.com/google/uuid"
)

// roleDB represents the structure of the role table in the database.
type roleDB struct {
	ID             uuid.UUID `db:"role_id"`
	TenantID       uuid.UUID `db:"tenant_id"`
	Name           string    `db:"name"`
	NormalizedName string    `db:"normalized_name"`
	Description    string    `db:"description"`
	Enabled        bool      `db:"enabled"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// EntityID implements the scopedb.Scoped interface.
func (db roleDB) EntityID() uuid.UUID {
	return db.ID
}

// GetTenantID implements the scopedb.Scoped interface.
func (db roleDB) GetTenantID() uuid.UUID {
	return db.TenantID
}

// WithTenantID implements the scopedb.Scoped interface.
func (db roleDB) WithTenantID(tenantID uuid.UUID) roleDB {
	db.TenantID = tenantID
	return db
}

func toDBRole(bus rolebus.Role) roleDB {
	return roleDB{
		ID:             bus.ID,
		TenantID:       bus.TenantID,
		Name:           bus.Name.String(),
		NormalizedName: bus.NormalizedName,
		Description:    bus.Description,
		Enabled:        bus.Enabled,
		CreatedAt:      bus.CreatedAt.UTC(),
		UpdatedAt:      bus.UpdatedAt.UTC(),
	}
}

func toBusRole(db roleDB) (rolebus.Role, error) {
	nme, err := name.Parse(db.Name)
	if err != nil {
		return rolebus.Role{}, fmt.Errorf("parse name: %w", err)
	}

	bus := rolebus.Role{
		ID:             db.ID,
		TenantID:       db.TenantID,
		Name:           nme,
		NormalizedName: db.NormalizedName,
		Description:    db.Description,
		Enabled:        db.Enabled,
		CreatedAt:      db.CreatedAt,
		UpdatedAt:      db.UpdatedAt,
	}

	return bus, nil
}

func toBusRoles(dbs []roleDB) ([]rolebus.Role, error) {
	bus := make([]rolebus.Role, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusRole(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}
