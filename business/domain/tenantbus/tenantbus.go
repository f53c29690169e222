// Package tenantbus provides business access to tenants. Tenants are global
// entities: every scoped entity references one, but the tenant table itself
// carries no tenant_id. Lifecycle operations are reserved for the system
// scope; the identifier lookup feeds tenant resolution and is open.
package tenantbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getorbital/orbital/business/sdk/sqldb"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/business/types/slug"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/getorbital/orbital/foundation/otel"
	"github.com/google/uuid"
)

// Set of errors for tenant operations.
var (
	ErrNotFound     = errors.New("tenant not found")
	ErrUniqueSlug   = errors.New("slug is not unique")
	ErrAccessDenied = errors.New("access denied")
)

// Storer defines the behavior required by the tenantbus to interact with
// the database.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, t Tenant) error
	Update(ctx context.Context, t Tenant) error
	Delete(ctx context.Context, t Tenant) error
	Query(ctx context.Context) ([]Tenant, error)
	QueryByID(ctx context.Context, tenantID uuid.UUID) (Tenant, error)
	QueryIDBySlug(ctx context.Context, sl slug.Slug) (uuid.UUID, error)
}

// Core manages the set of APIs for tenant access.
type Core struct {
	storer Storer
	log    *logger.Logger
}

// NewCore constructs a core for tenant api access.
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

// Create adds a new tenant to the system. Only the system scope may create
// tenants.
func (c *Core) Create(ctx context.Context, scope tenancy.Scope, nt NewTenant) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.create")
	defer span.End()

	if !scope.IsSystem() {
		return Tenant{}, fmt.Errorf("create: scope[%s]: %w", scope, ErrAccessDenied)
	}

	now := time.Now()

	t := Tenant{
		ID:        uuid.New(),
		Name:      nt.Name,
		Slug:      nt.Slug,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storer.Create(ctx, t); err != nil {
		return Tenant{}, fmt.Errorf("create: %w", err)
	}

	return t, nil
}

// Update modifies data about a tenant. Renaming and enabling/disabling are
// system scope operations.
func (c *Core) Update(ctx context.Context, scope tenancy.Scope, t Tenant, ut UpdateTenant) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.update")
	defer span.End()

	if !scope.IsSystem() {
		return Tenant{}, fmt.Errorf("update: scope[%s]: %w", scope, ErrAccessDenied)
	}

	if ut.Name != nil {
		t.Name = *ut.Name
	}

	if ut.Enabled != nil {
		t.Enabled = *ut.Enabled
	}

	t.UpdatedAt = time.Now()

	if err := c.storer.Update(ctx, t); err != nil {
		return Tenant{}, fmt.Errorf("update: %w", err)
	}

	return t, nil
}

// Delete removes the specified tenant from the system. The schema cascades
// the delete to every scoped row the tenant owns, so this is destructive and
// gated to the system scope.
func (c *Core) Delete(ctx context.Context, scope tenancy.Scope, t Tenant) error {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.delete")
	defer span.End()

	if !scope.IsSystem() {
		return fmt.Errorf("delete: scope[%s]: %w", scope, ErrAccessDenied)
	}

	c.log.Info(ctx, "tenantbus: deleting tenant and all scoped data", "tenant_id", t.ID, "slug", t.Slug)

	if err := c.storer.Delete(ctx, t); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// Query retrieves the list of tenants. System scope only.
func (c *Core) Query(ctx context.Context, scope tenancy.Scope) ([]Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.query")
	defer span.End()

	if !scope.IsSystem() {
		return nil, fmt.Errorf("query: scope[%s]: %w", scope, ErrAccessDenied)
	}

	tenants, err := c.storer.Query(ctx)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return tenants, nil
}

// QueryByID finds the tenant by the specified ID.
func (c *Core) QueryByID(ctx context.Context, tenantID uuid.UUID) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.queryByID")
	defer span.End()

	tenant, err := c.storer.QueryByID(ctx, tenantID)
	if err != nil {
		return Tenant{}, fmt.Errorf("query: tenantID[%s]: %w", tenantID, err)
	}

	return tenant, nil
}

// QueryIDBySlug returns the tenant ID for the specified slug. Disabled
// tenants do not resolve. This implements tenancy.Lookup.
func (c *Core) QueryIDBySlug(ctx context.Context, sl slug.Slug) (uuid.UUID, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.queryIDBySlug")
	defer span.End()

	id, err := c.storer.QueryIDBySlug(ctx, sl)
	if err != nil {
		return uuid.Nil, fmt.Errorf("query by slug[%s]: %w", sl, err)
	}

	return id, nil
}
