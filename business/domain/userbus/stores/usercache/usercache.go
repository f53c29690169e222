// Package usercache contains user related CRUD functionality with caching.
// Cache keys embed the scope, so an entry loaded under one tenant can never
// be served to another and system scope lookups never shadow tenant entries.
package usercache

import (
	"context"
	"time"

	"github.com/getorbital/orbital/business/domain/userbus"
	"github.com/getorbital/orbital/business/sdk/order"
	"github.com/getorbital/orbital/business/sdk/page"
	"github.com/getorbital/orbital/business/sdk/sqldb"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/google/uuid"
	"github.com/viccon/sturdyc"
)

// Store manages the set of APIs for user data and caching.
type Store struct {
	log    *logger.Logger
	storer userbus.Storer
	cache  *sturdyc.Client[userbus.User]
}

// NewStore constructs the api for data and caching access.
func NewStore(log *logger.Logger, storer userbus.Storer, ttl time.Duration) *Store {
	const capacity = 10000
	const numShards = 10
	const evictionPercentage = 10

	return &Store{
		log:    log,
		storer: storer,
		cache:  sturdyc.New[userbus.User](capacity, numShards, ttl, evictionPercentage),
	}
}

// NewWithTx constructs a new Store value replacing the storer value with a
// storer value that is currently inside a transaction. The cache is shared.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (userbus.Storer, error) {
	storer, err := s.storer.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	store := Store{
		log:    s.log,
		storer: storer,
		cache:  s.cache,
	}

	return &store, nil
}

// Create inserts a new user into the database. The cache is not populated
// here; a create inside a transaction that later rolls back must not leave a
// phantom entry behind.
func (s *Store) Create(ctx context.Context, scope tenancy.Scope, usr userbus.User) (userbus.User, error) {
	return s.storer.Create(ctx, scope, usr)
}

// Update replaces a user document in the database and evicts the cached
// entries.
func (s *Store) Update(ctx context.Context, scope tenancy.Scope, usr userbus.User) error {
	if err := s.storer.Update(ctx, scope, usr); err != nil {
		return err
	}

	s.evict(usr)

	return nil
}

// Delete removes a user from the database and evicts the cached entries.
func (s *Store) Delete(ctx context.Context, scope tenancy.Scope, usr userbus.User) error {
	if err := s.storer.Delete(ctx, scope, usr); err != nil {
		return err
	}

	s.evict(usr)

	return nil
}

// Query retrieves a page of users from the database. Pages are not cached.
func (s *Store) Query(ctx context.Context, scope tenancy.Scope, orderBy order.By, pg page.Page) ([]userbus.User, error) {
	return s.storer.Query(ctx, scope, orderBy, pg)
}

// Count returns the number of users within the scope.
func (s *Store) Count(ctx context.Context, scope tenancy.Scope) (int, error) {
	return s.storer.Count(ctx, scope)
}

// QueryByID gets the specified user from the cache or database. System scope
// lookups bypass the cache; they span tenants and are rare.
func (s *Store) QueryByID(ctx context.Context, scope tenancy.Scope, userID uuid.UUID) (userbus.User, error) {
	if scope.IsSystem() {
		return s.storer.QueryByID(ctx, scope, userID)
	}

	return s.cache.GetOrFetch(ctx, idKey(scope.TenantID(), userID), func(ctx context.Context) (userbus.User, error) {
		return s.storer.QueryByID(ctx, scope, userID)
	})
}

// QueryByNormalizedUsername gets the user holding the normalized username
// from the cache or database.
func (s *Store) QueryByNormalizedUsername(ctx context.Context, scope tenancy.Scope, key string) (userbus.User, error) {
	if scope.IsSystem() {
		return s.storer.QueryByNormalizedUsername(ctx, scope, key)
	}

	return s.cache.GetOrFetch(ctx, usernameKey(scope.TenantID(), key), func(ctx context.Context) (userbus.User, error) {
		return s.storer.QueryByNormalizedUsername(ctx, scope, key)
	})
}

// QueryByNormalizedEmail gets the user holding the normalized email from the
// database. Email lookups are cold paths and are not cached.
func (s *Store) QueryByNormalizedEmail(ctx context.Context, scope tenancy.Scope, key string) (userbus.User, error) {
	return s.storer.QueryByNormalizedEmail(ctx, scope, key)
}

func (s *Store) evict(usr userbus.User) {
	s.cache.Delete(idKey(usr.TenantID, usr.ID))
	s.cache.Delete(usernameKey(usr.TenantID, usr.NormalizedUsername))
}

func idKey(tenantID uuid.UUID, userID uuid.UUID) string {
	return "id:" + tenantID.String() + ":" + userID.String()
}

func usernameKey(tenantID uuid.UUID, key string) string {
	return "username:" + tenantID.String() + ":" + key
}
