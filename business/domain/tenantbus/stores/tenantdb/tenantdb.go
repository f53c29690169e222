// Package tenantdb contains tenant related CRUD functionality.
package tenantdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/getorbital/orbital/business/domain/tenantbus"
	"github.com/getorbital/orbital/business/sdk/sqldb"
	"github.com/getorbital/orbital/business/types/slug"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Store manages the set of APIs for tenant database access.
type Store struct {
	log *logger.Logger
	db  sqlx.ExtContext
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *Store {
	return &Store{
		log: log,
		db:  db,
	}
}

// NewWithTx constructs a new Store value replacing the sqlx DB value with a
// sqlx DB value that is currently inside a transaction.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (tenantbus.Storer, error) {
	ec, err := sqldb.GetExtContext(tx)
	if err != nil {
		return nil, err
	}

	store := Store{
		log: s.log,
		db:  ec,
	}

	return &store, nil
}

// Create inserts a new tenant into the database.
func (s *Store) Create(ctx context.Context, t tenantbus.Tenant) error {
	const q = `
	INSERT INTO tenant
		(tenant_id, name, slug, enabled, created_at, updated_at)
	VALUES
		(:tenant_id, :name, :slug, :enabled, :created_at, :updated_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBTenant(t)); err != nil {
		var dupErr sqldb.ErrDBDuplicatedEntry
		if errors.As(err, &dupErr) {
			return fmt.Errorf("namedexeccontext: %w", tenantbus.ErrUniqueSlug)
		}
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Update replaces a tenant document in the database.
func (s *Store) Update(ctx context.Context, t tenantbus.Tenant) error {
	const q = `
	UPDATE
		tenant
	SET
		name = :name,
		enabled = :enabled,
		updated_at = :updated_at
	WHERE
		tenant_id = :tenant_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBTenant(t)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Delete removes a tenant from the database. The scoped tables cascade.
func (s *Store) Delete(ctx context.Context, t tenantbus.Tenant) error {
	const q = `
	DELETE FROM
		tenant
	WHERE
		tenant_id = :tenant_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBTenant(t)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Query retrieves the list of existing tenants from the database.
func (s *Store) Query(ctx context.Context) ([]tenantbus.Tenant, error) {
	const q = `
	SELECT
		tenant_id, name, slug, enabled, created_at, updated_at
	FROM
		tenant
	ORDER BY
		slug`

	var dbTenants []tenantDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, struct{}{}, &dbTenants); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusTenants(dbTenants)
}

// QueryByID gets the specified tenant from the database.
func (s *Store) QueryByID(ctx context.Context, tenantID uuid.UUID) (tenantbus.Tenant, error) {
	data := struct {
		ID string `db:"tenant_id"`
	}{
		ID: tenantID.String(),
	}

	const q = `
	SELECT
		tenant_id, name, slug, enabled, created_at, updated_at
	FROM
		tenant
	WHERE
		tenant_id = :tenant_id`

	var dbTenant tenantDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbTenant); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return tenantbus.Tenant{}, fmt.Errorf("db: %w", tenantbus.ErrNotFound)
		}
		return tenantbus.Tenant{}, fmt.Errorf("db: %w", err)
	}

	return toBusTenant(dbTenant)
}

// QueryIDBySlug retrieves the tenant ID for the specified slug. Disabled
// tenants are excluded so they stop resolving immediately.
func (s *Store) QueryIDBySlug(ctx context.Context, sl slug.Slug) (uuid.UUID, error) {
	data := struct {
		Slug    string `db:"slug"`
		Enabled bool   `db:"enabled"`
	}{
		Slug:    sl.String(),
		Enabled: true,
	}

	const q = `
	SELECT
		tenant_id
	FROM
		tenant
	WHERE
		slug = :slug AND enabled = :enabled`

	var result struct {
		ID uuid.UUID `db:"tenant_id"`
	}

	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &result); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return uuid.Nil, tenantbus.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("db: %w", err)
	}

	return result.ID, nil
}
