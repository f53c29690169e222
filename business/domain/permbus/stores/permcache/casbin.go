package permcache

import (
	"context"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/google/uuid"
)

// The enforcer holds one domain per tenant. Grouping policies link a user to
// a role inside its domain; policies grant a permission name to a role inside
// the same domain. A request can never match across domains, so a cached
// answer can never cross a tenant boundary.
const casbinModel = `
[request_definition]
r = sub, dom, obj

[policy_definition]
p = sub, dom, obj

[role_definition]
g = _, _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub, r.dom) && r.dom == p.dom && r.obj == p.obj
`

type memoryCache struct {
	log      *logger.Logger
	enforcer *casbin.Enforcer
}

func newMemoryCache(log *logger.Logger) (*memoryCache, error) {
	m, err := model.NewModelFromString(casbinModel)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	return &memoryCache{
		log:      log,
		enforcer: e,
	}, nil
}

// check reports whether the enforcer can answer the permission positively.
// A negative answer only means the cache does not know; the caller falls
// back to the database.
func (c *memoryCache) check(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID, permName string) bool {
	ok, err := c.enforcer.Enforce(userID.String(), tenantID.String(), permName)
	if err != nil {
		c.log.Error(ctx, "permcache: casbin enforce failed", "user_id", userID, "perm", permName, "err", err)
		return false
	}

	return ok
}

// assign links the user to the role inside the tenant's domain.
func (c *memoryCache) assign(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID, roleID uuid.UUID) {
	if _, err := c.enforcer.AddGroupingPolicy(userID.String(), roleID.String(), tenantID.String()); err != nil {
		c.log.Error(ctx, "permcache: casbin add grouping failed", "user_id", userID, "role_id", roleID, "err", err)
	}
}

// unassign removes the user-role link in every domain it appears in.
func (c *memoryCache) unassign(ctx context.Context, userID uuid.UUID, roleID uuid.UUID) {
	if _, err := c.enforcer.RemoveFilteredGroupingPolicy(0, userID.String(), roleID.String()); err != nil {
		c.log.Error(ctx, "permcache: casbin remove grouping failed", "user_id", userID, "role_id", roleID, "err", err)
	}
}

// grant links the permission name to the role inside the tenant's domain.
func (c *memoryCache) grant(ctx context.Context, tenantID uuid.UUID, roleID uuid.UUID, permName string) {
	if _, err := c.enforcer.AddPolicy(roleID.String(), tenantID.String(), permName); err != nil {
		c.log.Error(ctx, "permcache: casbin add policy failed", "role_id", roleID, "perm", permName, "err", err)
	}
}

// revoke removes the role-permission link in every domain it appears in.
// The empty middle value is a wildcard over the domain.
func (c *memoryCache) revoke(ctx context.Context, roleID uuid.UUID, permName string) {
	if _, err := c.enforcer.RemoveFilteredPolicy(0, roleID.String(), "", permName); err != nil {
		c.log.Error(ctx, "permcache: casbin remove policy failed", "role_id", roleID, "perm", permName, "err", err)
	}
}

// dropPermission removes every policy granting the permission name.
func (c *memoryCache) dropPermission(ctx context.Context, permName string) {
	if _, err := c.enforcer.RemoveFilteredPolicy(2, permName); err != nil {
		c.log.Error(ctx, "permcache: casbin drop permission failed", "perm", permName, "err", err)
	}
}
