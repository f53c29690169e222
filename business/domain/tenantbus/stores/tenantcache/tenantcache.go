// Package tenantcache contains tenant related CRUD functionality with a
// read-through cache. The identifier-to-id mapping is hit on every resolved
// request, so it is the one lookup worth keeping hot. Entries are evicted on
// any mutation; a resolved scope is a per-request snapshot, so a brief stale
// window only affects future resolutions, never a request in flight.
package tenantcache

import (
	"context"
	"time"

	"github.com/getorbital/orbital/business/domain/tenantbus"
	"github.com/getorbital/orbital/business/sdk/sqldb"
	"github.com/getorbital/orbital/business/types/slug"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/google/uuid"
	"github.com/viccon/sturdyc"
)

// Store manages the set of APIs for tenant data and caching.
type Store struct {
	log    *logger.Logger
	storer tenantbus.Storer
	ids    *sturdyc.Client[uuid.UUID]
	cache  *sturdyc.Client[tenantbus.Tenant]
}

// NewStore constructs the api for data and caching access.
func NewStore(log *logger.Logger, storer tenantbus.Storer, ttl time.Duration) *Store {
	const capacity = 10000
	const numShards = 10
	const evictionPercentage = 10

	return &Store{
		log:    log,
		storer: storer,
		ids:    sturdyc.New[uuid.UUID](capacity, numShards, ttl, evictionPercentage),
		cache:  sturdyc.New[tenantbus.Tenant](capacity, numShards, ttl, evictionPercentage),
	}
}

// NewWithTx constructs a new Store value replacing the storer value with a
// storer value that is currently inside a transaction. The caches are
// shared; mutations inside the transaction still evict.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (tenantbus.Storer, error) {
	storer, err := s.storer.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	store := Store{
		log:    s.log,
		storer: storer,
		ids:    s.ids,
		cache:  s.cache,
	}

	return &store, nil
}

// Create inserts a new tenant into the database. The caches are not
// populated here; a create inside a transaction that later rolls back must
// not leave a phantom entry behind.
func (s *Store) Create(ctx context.Context, t tenantbus.Tenant) error {
	return s.storer.Create(ctx, t)
}

// Update replaces a tenant document in the database and evicts the cached
// entries so a disabled tenant stops resolving.
func (s *Store) Update(ctx context.Context, t tenantbus.Tenant) error {
	if err := s.storer.Update(ctx, t); err != nil {
		return err
	}

	s.cache.Delete(t.ID.String())
	s.ids.Delete(t.Slug.String())

	return nil
}

// Delete removes a tenant from the database and evicts the cached entries.
func (s *Store) Delete(ctx context.Context, t tenantbus.Tenant) error {
	if err := s.storer.Delete(ctx, t); err != nil {
		return err
	}

	s.cache.Delete(t.ID.String())
	s.ids.Delete(t.Slug.String())

	return nil
}

// Query retrieves the list of existing tenants from the database. The list
// is administrative and is not cached.
func (s *Store) Query(ctx context.Context) ([]tenantbus.Tenant, error) {
	return s.storer.Query(ctx)
}

// QueryByID gets the specified tenant from the cache or database.
func (s *Store) QueryByID(ctx context.Context, tenantID uuid.UUID) (tenantbus.Tenant, error) {
	return s.cache.GetOrFetch(ctx, tenantID.String(), func(ctx context.Context) (tenantbus.Tenant, error) {
		return s.storer.QueryByID(ctx, tenantID)
	})
}

// QueryIDBySlug retrieves the tenant ID for the specified slug from the
// cache or database.
func (s *Store) QueryIDBySlug(ctx context.Context, sl slug.Slug) (uuid.UUID, error) {
	return s.ids.GetOrFetch(ctx, sl.String(), func(ctx context.Context) (uuid.UUID, error) {
		return s.storer.QueryIDBySlug(ctx, sl)
	})
}
