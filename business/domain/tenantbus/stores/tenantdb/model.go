package tenantdb

import (
	"fmt"
	"time"

	"github.com/getorbital/orbital/business/domain/tenantbus"
	"github.com/getorbital/orbital/business/types/name"
	"github.com/getorbital/orbital/business/types/slug"
	"github.com/google/uuid"
)

// tenantDB represents the structure of the tenant table in the database.
type tenantDB struct {
	ID        uuid.UUID `db:"tenant_id"`
	Name      string    `db:"name"`
	Slug      string    `db:"slug"`
	Enabled   bool      `db:"enabled"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func toDBTenant(bus tenantbus.Tenant) tenantDB {
	return tenantDB{
		ID:        bus.ID,
		Name:      bus.Name.String(),
		Slug:      bus.Slug.String(),
		Enabled:   bus.Enabled,
		CreatedAt: bus.CreatedAt.UTC(),
		UpdatedAt: bus.UpdatedAt.UTC(),
	}
}

func toBusTenant(db tenantDB) (tenantbus.Tenant, error) {
	nme, err := name.Parse(db.Name)
	if err != nil {
		return tenantbus.Tenant{}, fmt.Errorf("parse name: %w", err)
	}

	sl, err := slug.Parse(db.Slug)
	if err != nil {
		return tenantbus.Tenant{}, fmt.Errorf("parse slug: %w", err)
	}

	bus := tenantbus.Tenant{
		ID:        db.ID,
		Name:      nme,
		Slug:      sl,
		Enabled:   db.Enabled,
		CreatedAt: db.CreatedAt,
		UpdatedAt: db.UpdatedAt,
	}

	return bus, nil
}

func toBusTenants(dbs []tenantDB) ([]tenantbus.Tenant, error) {
	bus := make([]tenantbus.Tenant, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusTenant(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}
