package sectiondb

import (
	"fmt"
	"time"

	"github.com/getorbital/orbital/business/domain/sectionbus"
	"github.com/getorbital/orbital/business/types/name"
	"github.com/google/uuid"
)

// sectionDB represents the structure of the section table in the database.
type sectionDB struct {
	ID             uuid.UUID `db:"section_id"`
	TenantID       uuid.UUID `db:"tenant_id"`
	Name           string    `db:"name"`
	NormalizedName string    `db:"normalized_name"`
	Description    string    `db:"description"`
	Enabled        bool      `db:"enabled"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// EntityID implements the scopedb.Scoped interface.
func (db sectionDB) EntityID() uuid.UUID {
	return db.ID
}

// GetTenantID implements the scopedb.Scoped interface.
func (db sectionDB) GetTenantID() uuid.UUID {
	return db.TenantID
}

// WithTenantID implements the scopedb.Scoped interface.
func (db sectionDB) WithTenantID(tenantID uuid.UUID) sectionDB {
	db.TenantID = tenantID
	return db
}

func toDBSection(bus sectionbus.Section) sectionDB {
	return sectionDB{
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

func toBusSection(db sectionDB) (sectionbus.Section, error) {
	nme, err := name.Parse(db.Name)
	if err != nil {
		return sectionbus.Section{}, fmt.Errorf("parse name: %w", err)
	}

	bus := sectionbus.Section{
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

func toBusSections(dbs []sectionDB) ([]sectionbus.Section, error) {
	bus := make([]sectionbus.Section, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusSection(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}
