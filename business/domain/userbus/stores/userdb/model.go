package userdb

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/getorbital/orbital/business/domain/userbus"
	"github.com/getorbital/orbital/business/types/name"
	"github.com/getorbital/orbital/business/types/username"
	"github.com/google/uuid"
)

// userDB represents the structure of the users table in the database.
type userDB struct {
	ID                 uuid.UUID `db:"user_id"`
	TenantID           uuid.UUID `db:"tenant_id"`
	Username           string    `db:"username"`
	NormalizedUsername string    `db:"normalized_username"`
	Email              string    `db:"email"`
	NormalizedEmail    string    `db:"normalized_email"`
	FullName           string    `db:"full_name"`
	PasswordHash       []byte    `db:"password_hash"`
	Enabled            bool      `db:"enabled"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

// EntityID implements the scopedb.Scoped interface.
func (db userDB) EntityID() uuid.UUID {
	return db.ID
}

// GetTenantID implements the scopedb.Scoped interface.
func (db userDB) GetTenantID() uuid.UUID {
	return db.TenantID
}

// WithTenantID implements the scopedb.Scoped interface.
func (db userDB) WithTenantID(tenantID uuid.UUID) userDB {
	db.TenantID = tenantID
	return db
}

func toDBUser(bus userbus.User) userDB {
	return userDB{
		ID:                 bus.ID,
		TenantID:           bus.TenantID,
		Username:           bus.Username.String(),
		NormalizedUsername: bus.NormalizedUsername,
		Email:              bus.Email.Address,
		NormalizedEmail:    bus.NormalizedEmail,
		FullName:           bus.FullName.String(),
		PasswordHash:       bus.PasswordHash,
		Enabled:            bus.Enabled,
		CreatedAt:          bus.CreatedAt.UTC(),
		UpdatedAt:          bus.UpdatedAt.UTC(),
	}
}

func toBusUser(db userDB) (userbus.User, error) {
	un, err := username.Parse(db.Username)
	if err != nil {
		return userbus.User{}, fmt.Errorf("parse username: %w", err)
	}

	fn, err := name.Parse(db.FullName)
	if err != nil {
		return userbus.User{}, fmt.Errorf("parse full name: %w", err)
	}

	bus := userbus.User{
		ID:                 db.ID,
		TenantID:           db.TenantID,
		Username:           un,
		NormalizedUsername: db.NormalizedUsername,
		Email:              mail.Address{Address: db.Email},
		NormalizedEmail:    db.NormalizedEmail,
		FullName:           fn,
		PasswordHash:       db.PasswordHash,
		Enabled:            db.Enabled,
		CreatedAt:          db.CreatedAt,
		UpdatedAt:          db.UpdatedAt,
	}

	return bus, nil
}

func toBusUsers(dbs []userDB) ([]userbus.User, error) {
	bus := make([]userbus.User, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusUser(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}
