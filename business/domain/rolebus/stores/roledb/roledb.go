// Package roledb contains role related CRUD functionality built on the
// generic scoped store.
package roledb

import (
	"context"
	"errors"
	"fmt"

	"github.com/getorbital/orbital/business/domain/rolebus"
	"github.com/getorbital/orbital/business/sdk/order"
	"github.com/getorbital/orbital/business/sdk/page"
	"github.com/getorbital/orbital/business/sdk/scopedb"
	"github.com/getorbital/orbital/business/sdk/sqldb"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var roleTable = scopedb.Table{
	Name:     "role",
	IDColumn: "role_id",
	Columns: []string{
		"role_id", "tenant_id", "name", "normalized_name",
		"description", "enabled", "created_at", "updated_at",
	},
}

// Store manages the set of APIs for role database access.
type Store struct {
	log    *logger.Logger
	scoped *scopedb.Store[roleDB]
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *Store {
	return &Store{
		log:    log,
		scoped: scopedb.NewStore[roleDB](log, db, roleTable),
	}
}

// NewWithTx constructs a new Store value replacing the sqlx DB value with a
// sqlx DB value that is currently inside a transaction.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (rolebus.Storer, error) {
	scoped, err := s.scoped.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	store := Store{
		log:    s.log,
		scoped: scoped,
	}

	return &store, nil
}

// Create inserts a new role into the database under the specified scope.
func (s *Store) Create(ctx context.Context, scope tenancy.Scope, rl rolebus.Role) (rolebus.Role, error) {
	stamped, err := s.scoped.Create(ctx, scope, toDBRole(rl))
	if err != nil {
		var dupErr sqldb.ErrDBDuplicatedEntry
		if errors.As(err, &dupErr) {
			return rolebus.Role{}, fmt.Errorf("create: %w", rolebus.ErrUniqueName)
		}
		return rolebus.Role{}, fmt.Errorf("create: %w", err)
	}

	return toBusRole(stamped)
}

// Update replaces a role document in the database within the scope.
func (s *Store) Update(ctx context.Context, scope tenancy.Scope, rl rolebus.Role) error {
	if err := s.scoped.Update(ctx, scope, toDBRole(rl)); err != nil {
		if errors.Is(err, scopedb.ErrNotFound) {
			return rolebus.ErrNotFound
		}
		return fmt.Errorf("update: %w", err)
	}

	return nil
}

// Delete removes a role from the database within the scope.
func (s *Store) Delete(ctx context.Context, scope tenancy.Scope, rl rolebus.Role) error {
	if err := s.scoped.Delete(ctx, scope, rl.ID); err != nil {
		if errors.Is(err, scopedb.ErrNotFound) {
			return rolebus.ErrNotFound
		}
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// Query retrieves a page of roles within the scope.
func (s *Store) Query(ctx context.Context, scope tenancy.Scope, orderBy order.By, pg page.Page) ([]rolebus.Role, error) {
	dbRoles, err := s.scoped.Query(ctx, scope, "", nil, orderBy, pg)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return toBusRoles(dbRoles)
}

// Count returns the number of roles within the scope.
func (s *Store) Count(ctx context.Context, scope tenancy.Scope) (int, error) {
	return s.scoped.Count(ctx, scope, "", nil)
}

// QueryByID gets the specified role from the database within the scope.
func (s *Store) QueryByID(ctx context.Context, scope tenancy.Scope, roleID uuid.UUID) (rolebus.Role, error) {
	dbRole, err := s.scoped.QueryByID(ctx, scope, roleID)
	if err != nil {
		if errors.Is(err, scopedb.ErrNotFound) {
			return rolebus.Role{}, rolebus.ErrNotFound
		}
		return rolebus.Role{}, fmt.Errorf("querybyid: %w", err)
	}

	return toBusRole(dbRole)
}

// QueryByNormalizedName gets the role holding the normalized name within the
// scope.
func (s *Store) QueryByNormalizedName(ctx context.Context, scope tenancy.Scope, key string) (rolebus.Role, error) {
	dbRoles, err := s.scoped.Query(ctx, scope, "normalized_name = :normalized_name", map[string]any{
		"normalized_name": key,
	}, order.By{}, page.MustParse("1", "1"))
	if err != nil {
		return rolebus.Role{}, fmt.Errorf("query: %w", err)
	}

	if len(dbRoles) == 0 {
		return rolebus.Role{}, rolebus.ErrNotFound
	}

	return toBusRole(dbRoles[0])
}
