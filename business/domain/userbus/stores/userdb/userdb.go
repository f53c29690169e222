// Package userdb contains user related CRUD functionality. The store
// composes the generic scoped store, so every statement carries the tenant
// filter and every write is stamped or rejected before it reaches the
// database.
package userdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getorbital/orbital/business/domain/userbus"
	"github.com/getorbital/orbital/business/sdk/order"
	"github.com/getorbital/orbital/business/sdk/page"
	"github.com/getorbital/orbital/business/sdk/scopedb"
	"github.com/getorbital/orbital/business/sdk/sqldb"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var userTable = scopedb.Table{
	Name:     "users",
	IDColumn: "user_id",
	Columns: []string{
		"user_id", "tenant_id", "username", "normalized_username",
		"email", "normalized_email", "full_name", "password_hash",
		"enabled", "created_at", "updated_at",
	},
}

// Store manages the set of APIs for user database access.
type Store struct {
	log    *logger.Logger
	scoped *scopedb.Store[userDB]
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *Store {
	return &Store{
		log:    log,
		scoped: scopedb.NewStore[userDB](log, db, userTable),
	}
}

// NewWithTx constructs a new Store value replacing the sqlx DB value with a
// sqlx DB value that is currently inside a transaction.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (userbus.Storer, error) {
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

// Create inserts a new user into the database under the specified scope.
func (s *Store) Create(ctx context.Context, scope tenancy.Scope, usr userbus.User) (userbus.User, error) {
	stamped, err := s.scoped.Create(ctx, scope, toDBUser(usr))
	if err != nil {
		return userbus.User{}, fmt.Errorf("create: %w", mapUniqueErr(err))
	}

	return toBusUser(stamped)
}

// Update replaces a user document in the database within the scope.
func (s *Store) Update(ctx context.Context, scope tenancy.Scope, usr userbus.User) error {
	if err := s.scoped.Update(ctx, scope, toDBUser(usr)); err != nil {
		if errors.Is(err, scopedb.ErrNotFound) {
			return userbus.ErrNotFound
		}
		return fmt.Errorf("update: %w", mapUniqueErr(err))
	}

	return nil
}

// Delete removes a user from the database within the scope.
func (s *Store) Delete(ctx context.Context, scope tenancy.Scope, usr userbus.User) error {
	if err := s.scoped.Delete(ctx, scope, usr.ID); err != nil {
		if errors.Is(err, scopedb.ErrNotFound) {
			return userbus.ErrNotFound
		}
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// Query retrieves a page of users within the scope.
func (s *Store) Query(ctx context.Context, scope tenancy.Scope, orderBy order.By, pg page.Page) ([]userbus.User, error) {
	dbUsers, err := s.scoped.Query(ctx, scope, "", nil, orderBy, pg)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return toBusUsers(dbUsers)
}

// Count returns the number of users within the scope.
func (s *Store) Count(ctx context.Context, scope tenancy.Scope) (int, error) {
	return s.scoped.Count(ctx, scope, "", nil)
}

// QueryByID gets the specified user from the database within the scope.
func (s *Store) QueryByID(ctx context.Context, scope tenancy.Scope, userID uuid.UUID) (userbus.User, error) {
	dbUsr, err := s.scoped.QueryByID(ctx, scope, userID)
	if err != nil {
		if errors.Is(err, scopedb.ErrNotFound) {
			return userbus.User{}, userbus.ErrNotFound
		}
		return userbus.User{}, fmt.Errorf("querybyid: %w", err)
	}

	return toBusUser(dbUsr)
}

// QueryByNormalizedUsername gets the user holding the normalized username
// within the scope.
func (s *Store) QueryByNormalizedUsername(ctx context.Context, scope tenancy.Scope, key string) (userbus.User, error) {
	return s.queryOne(ctx, scope, "normalized_username = :normalized_username", map[string]any{
		"normalized_username": key,
	})
}

// QueryByNormalizedEmail gets the user holding the normalized email within
// the scope.
func (s *Store) QueryByNormalizedEmail(ctx context.Context, scope tenancy.Scope, key string) (userbus.User, error) {
	return s.queryOne(ctx, scope, "normalized_email = :normalized_email", map[string]any{
		"normalized_email": key,
	})
}

func (s *Store) queryOne(ctx context.Context, scope tenancy.Scope, clause string, args map[string]any) (userbus.User, error) {
	dbUsers, err := s.scoped.Query(ctx, scope, clause, args, order.By{}, page.MustParse("1", "1"))
	if err != nil {
		return userbus.User{}, fmt.Errorf("query: %w", err)
	}

	if len(dbUsers) == 0 {
		return userbus.User{}, userbus.ErrNotFound
	}

	return toBusUser(dbUsers[0])
}

// mapUniqueErr translates a db unique violation into the matching business
// error. Postgres reports the constraint name, sqlite the column list, so the
// match is on content rather than an exact name.
func mapUniqueErr(err error) error {
	var dupErr sqldb.ErrDBDuplicatedEntry
	if !errors.As(err, &dupErr) {
		return err
	}

	if strings.Contains(dupErr.Column, "email") {
		return userbus.ErrUniqueEmail
	}

	return userbus.ErrUniqueUsername
}
