// Package permcache implements the permbus.Storer interface with a
// write-through casbin cache in front of the database store. Assignment
// writes update the enforcer immediately; the hot permission check is
// answered in memory and falls back to the database with self-repair on a
// miss. Disabling a role is not mirrored here, so the enabled check is only
// authoritative on the database path; a cached positive can outlive a role
// disable until its assignments are removed.
package permcache

import (
	"context"
	"fmt"

	"github.com/getorbital/orbital/business/domain/permbus"
	"github.com/getorbital/orbital/business/sdk/sqldb"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/google/uuid"
)

// Store implements the permbus.Storer interface with a write-through cache.
type Store struct {
	log    *logger.Logger
	storer permbus.Storer
	cache  *memoryCache
}

// NewStore constructs the cached store and warms it from the database.
func NewStore(log *logger.Logger, storer permbus.Storer) (*Store, error) {
	mem, err := newMemoryCache(log)
	if err != nil {
		return nil, err
	}

	s := &Store{
		log:    log,
		storer: storer,
		cache:  mem,
	}

	if err := s.syncCache(context.Background()); err != nil {
		return nil, fmt.Errorf("sync cache: %w", err)
	}

	return s, nil
}

// NewWithTx constructs a new Store value replacing the storer value with a
// storer value that is currently inside a transaction. The cache is shared,
// so writes inside an uncommitted transaction become visible to checks
// immediately; a rolled back unit leaves the enforcer ahead of the database
// until the next repair pass.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (permbus.Storer, error) {
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

// CreatePermission inserts a catalog entry into the database.
func (s *Store) CreatePermission(ctx context.Context, p permbus.Permission) error {
	return s.storer.CreatePermission(ctx, p)
}

// DeletePermission removes a catalog entry and every cached policy granting
// it.
func (s *Store) DeletePermission(ctx context.Context, p permbus.Permission) error {
	if err := s.storer.DeletePermission(ctx, p); err != nil {
		return err
	}

	s.cache.dropPermission(ctx, p.Name)

	return nil
}

// QueryPermissions retrieves the global catalog from the database.
func (s *Store) QueryPermissions(ctx context.Context) ([]permbus.Permission, error) {
	return s.storer.QueryPermissions(ctx)
}

// QueryPermissionByID gets the specified catalog entry from the database.
func (s *Store) QueryPermissionByID(ctx context.Context, permissionID uuid.UUID) (permbus.Permission, error) {
	return s.storer.QueryPermissionByID(ctx, permissionID)
}

// QueryPermissionByName gets the catalog entry holding the name from the
// database.
func (s *Store) QueryPermissionByName(ctx context.Context, permName string) (permbus.Permission, error) {
	return s.storer.QueryPermissionByName(ctx, permName)
}

// AssignRoleToUser inserts the assignment and mirrors it in the enforcer.
func (s *Store) AssignRoleToUser(ctx context.Context, a permbus.Assignment) error {
	if err := s.storer.AssignRoleToUser(ctx, a); err != nil {
		return err
	}

	s.cache.assign(ctx, a.TenantID, a.UserID, a.RoleID)

	return nil
}

// RemoveRoleFromUser deletes the assignment and its cached grouping.
func (s *Store) RemoveRoleFromUser(ctx context.Context, scope tenancy.Scope, userID uuid.UUID, roleID uuid.UUID) error {
	if err := s.storer.RemoveRoleFromUser(ctx, scope, userID, roleID); err != nil {
		return err
	}

	s.cache.unassign(ctx, userID, roleID)

	return nil
}

// AssignPermissionToRole inserts the grant and mirrors it in the enforcer.
func (s *Store) AssignPermissionToRole(ctx context.Context, g permbus.Grant) error {
	if err := s.storer.AssignPermissionToRole(ctx, g); err != nil {
		return err
	}

	p, err := s.storer.QueryPermissionByID(ctx, g.PermissionID)
	if err != nil {
		return err
	}

	s.cache.grant(ctx, g.TenantID, g.RoleID, p.Name)

	return nil
}

// RemovePermissionFromRole deletes the grant and its cached policy.
func (s *Store) RemovePermissionFromRole(ctx context.Context, scope tenancy.Scope, roleID uuid.UUID, permissionID uuid.UUID) error {
	if err := s.storer.RemovePermissionFromRole(ctx, scope, roleID, permissionID); err != nil {
		return err
	}

	p, err := s.storer.QueryPermissionByID(ctx, permissionID)
	if err != nil {
		return err
	}

	s.cache.revoke(ctx, roleID, p.Name)

	return nil
}

// UserHasPermission answers from the enforcer when it can. A miss falls back
// to the database; a positive database answer repairs the cache by reloading
// the user's assignments and their grants. System scope checks bypass the
// cache, they span domains.
func (s *Store) UserHasPermission(ctx context.Context, scope tenancy.Scope, userID uuid.UUID, permName string) (bool, error) {
	if scope.IsSystem() {
		return s.storer.UserHasPermission(ctx, scope, userID, permName)
	}

	if s.cache.check(ctx, scope.TenantID(), userID, permName) {
		return true, nil
	}

	has, err := s.storer.UserHasPermission(ctx, scope, userID, permName)
	if err != nil {
		return false, err
	}

	if has {
		s.log.Info(ctx, "permcache: cache miss/repair triggered", "user_id", userID, "perm", permName)
		s.repair(ctx, scope, userID)
	}

	return has, nil
}

// QueryUserPermissions retrieves the effective set from the database.
func (s *Store) QueryUserPermissions(ctx context.Context, scope tenancy.Scope, userID uuid.UUID) ([]permbus.Permission, error) {
	return s.storer.QueryUserPermissions(ctx, scope, userID)
}

// QueryRolePermissions retrieves the role's grants from the database.
func (s *Store) QueryRolePermissions(ctx context.Context, scope tenancy.Scope, roleID uuid.UUID) ([]permbus.Permission, error) {
	return s.storer.QueryRolePermissions(ctx, scope, roleID)
}

// QueryUserRoleIDs retrieves the user's role ids from the database.
func (s *Store) QueryUserRoleIDs(ctx context.Context, scope tenancy.Scope, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.storer.QueryUserRoleIDs(ctx, scope, userID)
}

// QueryAssignments retrieves every assignment from the database.
func (s *Store) QueryAssignments(ctx context.Context) ([]permbus.Assignment, error) {
	return s.storer.QueryAssignments(ctx)
}

// QueryGrantRules retrieves every grant rule from the database.
func (s *Store) QueryGrantRules(ctx context.Context) ([]permbus.GrantRule, error) {
	return s.storer.QueryGrantRules(ctx)
}

// repair reloads the user's assignments and the grants of those roles into
// the enforcer.
func (s *Store) repair(ctx context.Context, scope tenancy.Scope, userID uuid.UUID) {
	roleIDs, err := s.storer.QueryUserRoleIDs(ctx, scope, userID)
	if err != nil {
		s.log.Error(ctx, "permcache: repair fetch roles failed", "user_id", userID, "err", err)
		return
	}

	for _, roleID := range roleIDs {
		s.cache.assign(ctx, scope.TenantID(), userID, roleID)

		perms, err := s.storer.QueryRolePermissions(ctx, scope, roleID)
		if err != nil {
			s.log.Error(ctx, "permcache: repair fetch grants failed", "role_id", roleID, "err", err)
			continue
		}

		for _, p := range perms {
			s.cache.grant(ctx, scope.TenantID(), roleID, p.Name)
		}
	}
}

// syncCache warms the enforcer from the full assignment and grant tables at
// startup.
func (s *Store) syncCache(ctx context.Context) error {
	assignments, err := s.storer.QueryAssignments(ctx)
	if err != nil {
		return fmt.Errorf("fetch assignments: %w", err)
	}

	for _, a := range assignments {
		s.cache.assign(ctx, a.TenantID, a.UserID, a.RoleID)
	}

	rules, err := s.storer.QueryGrantRules(ctx)
	if err != nil {
		return fmt.Errorf("fetch grant rules: %w", err)
	}

	for _, r := range rules {
		s.cache.grant(ctx, r.TenantID, r.RoleID, r.Permission)
	}

	return nil
}
