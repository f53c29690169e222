// Package rolebus provides business access to roles. Roles are tenant-scoped
// groupings of permissions; a role never crosses its tenant and the role name
// is unique per tenant over the normalized key.
package rolebus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getorbital/orbital/business/sdk/order"
	"github.com/getorbital/orbital/business/sdk/page"
	"github.com/getorbital/orbital/business/sdk/sqldb"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/business/types/normalize"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/getorbital/orbital/foundation/otel"
	"github.com/google/uuid"
)

// Set of errors for role operations.
var (
	ErrNotFound   = errors.New("role not found")
	ErrUniqueName = errors.New("role name is not unique within the tenant")
)

// Storer defines the behavior required by the rolebus to interact with the
// database.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, scope tenancy.Scope, rl Role) (Role, error)
	Update(ctx context.Context, scope tenancy.Scope, rl Role) error
	Delete(ctx context.Context, scope tenancy.Scope, rl Role) error
	Query(ctx context.Context, scope tenancy.Scope, orderBy order.By, pg page.Page) ([]Role, error)
	Count(ctx context.Context, scope tenancy.Scope) (int, error)
	QueryByID(ctx context.Context, scope tenancy.Scope, roleID uuid.UUID) (Role, error)
	QueryByNormalizedName(ctx context.Context, scope tenancy.Scope, key string) (Role, error)
}

// Core manages the set of APIs for role access.
type Core struct {
	storer Storer
	log    *logger.Logger
}

// NewCore constructs a core for role api access.
func NewCore(log *logger.Logger, storer Storer) *Core {
	return &Core{
		storer: storer,
		log:    log,
	}
}

// NewWithTx constructs a new Core value replacing the Storer value with a
// Storer value that is currently inside a transaction.
func (c *Core) NewWithTx(tx sqldb.CommitRollbacker) (*Core, error) {
	storer, err := c.storer.NewWithTx(tx)
	if err != nil {
		return nil, fmt.Errorf("newWithTx: %w", err)
	}

	return NewCore(c.log, storer), nil
}

// Create adds a new role under the specified scope.
func (c *Core) Create(ctx context.Context, scope tenancy.Scope, nr NewRole) (Role, error) {
	ctx, span := otel.AddSpan(ctx, "business.rolebus.create")
	defer span.End()

	now := time.Now()

	rl := Role{
		ID:             uuid.New(),
		TenantID:       nr.TenantID,
		Name:           nr.Name,
		NormalizedName: normalize.Key(nr.Name.String()),
		Description:    nr.Description,
		Enabled:        true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := c.checkUnique(ctx, scope, rl); err != nil {
		return Role{}, err
	}

	rl, err := c.storer.Create(ctx, scope, rl)
	if err != nil {
		return Role{}, fmt.Errorf("create: %w", err)
	}

	return rl, nil
}

// Update modifies data about a role within the scope.
func (c *Core) Update(ctx context.Context, scope tenancy.Scope, rl Role, ur UpdateRole) (Role, error) {
	ctx, span := otel.AddSpan(ctx, "business.rolebus.update")
	defer span.End()

	if ur.Name != nil {
		rl.Name = *ur.Name
		rl.NormalizedName = normalize.Key(ur.Name.String())
	}

	if ur.Description != nil {
		rl.Description = *ur.Description
	}

	if ur.Enabled != nil {
		rl.Enabled = *ur.Enabled
	}

	rl.UpdatedAt = time.Now()

	if err := c.storer.Update(ctx, scope, rl); err != nil {
		return Role{}, fmt.Errorf("update: %w", err)
	}

	return rl, nil
}

// Delete removes the specified role within the scope. The schema cascades
// the delete to the role's assignments.
func (c *Core) Delete(ctx context.Context, scope tenancy.Scope, rl Role) error {
	ctx, span := otel.AddSpan(ctx, "business.rolebus.delete")
	defer span.End()

	if err := c.storer.Delete(ctx, scope, rl); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// Query retrieves a page of roles within the scope.
func (c *Core) Query(ctx context.Context, scope tenancy.Scope, orderBy order.By, pg page.Page) ([]Role, error) {
	ctx, span := otel.AddSpan(ctx, "business.rolebus.query")
	defer span.End()

	roles, err := c.storer.Query(ctx, scope, orderBy, pg)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return roles, nil
}

// Count returns the number of roles within the scope.
func (c *Core) Count(ctx context.Context, scope tenancy.Scope) (int, error) {
	ctx, span := otel.AddSpan(ctx, "business.rolebus.count")
	defer span.End()

	return c.storer.Count(ctx, scope)
}

// QueryByID finds the role by the specified ID within the scope.
func (c *Core) QueryByID(ctx context.Context, scope tenancy.Scope, roleID uuid.UUID) (Role, error) {
	ctx, span := otel.AddSpan(ctx, "business.rolebus.queryByID")
	defer span.End()

	rl, err := c.storer.QueryByID(ctx, scope, roleID)
	if err != nil {
		return Role{}, fmt.Errorf("query: roleID[%s]: %w", roleID, err)
	}

	return rl, nil
}

// QueryByName finds the role by name within the scope over the normalized
// key.
func (c *Core) QueryByName(ctx context.Context, scope tenancy.Scope, roleName string) (Role, error) {
	ctx, span := otel.AddSpan(ctx, "business.rolebus.queryByName")
	defer span.End()

	rl, err := c.storer.QueryByNormalizedName(ctx, scope, normalize.Key(roleName))
	if err != nil {
		return Role{}, fmt.Errorf("query: name[%s]: %w", roleName, err)
	}

	return rl, nil
}

func (c *Core) checkUnique(ctx context.Context, scope tenancy.Scope, rl Role) error {
	checkScope := scope
	if scope.IsSystem() && rl.TenantID != uuid.Nil {
		checkScope = tenancy.New(rl.TenantID)
	}

	if _, err := c.storer.QueryByNormalizedName(ctx, checkScope, rl.NormalizedName); err == nil {
		return fmt.Errorf("create: name[%s]: %w", rl.Name, ErrUniqueName)
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("create: %w", err)
	}

	return nil
}
