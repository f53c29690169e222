// Package sectionbus provides business access to section definitions, the
// tenant-scoped configuration units of the product surface.
package sectionbus

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

// Set of errors for section operations.
var (
	ErrNotFound   = errors.New("section not found")
	ErrUniqueName = errors.New("section name is not unique within the tenant")
)

// Storer defines the behavior required by the sectionbus to interact with
// the database.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, scope tenancy.Scope, sec Section) (Section, error)
	Update(ctx context.Context, scope tenancy.Scope, sec Section) error
	Delete(ctx context.Context, scope tenancy.Scope, sec Section) error
	Query(ctx context.Context, scope tenancy.Scope, orderBy order.By, pg page.Page) ([]Section, error)
	Count(ctx context.Context, scope tenancy.Scope) (int, error)
	QueryByID(ctx context.Context, scope tenancy.Scope, sectionID uuid.UUID) (Section, error)
	QueryByNormalizedName(ctx context.Context, scope tenancy.Scope, key string) (Section, error)
}

// Core manages the set of APIs for section access.
type Core struct {
	storer Storer
	log    *logger.Logger
}

// NewCore constructs a core for section api access.
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

// Create adds a new section under the specified scope.
func (c *Core) Create(ctx context.Context, scope tenancy.Scope, ns NewSection) (Section, error) {
	ctx, span := otel.AddSpan(ctx, "business.sectionbus.create")
	defer span.End()

	now := time.Now()

	sec := Section{
		ID:             uuid.New(),
		TenantID:       ns.TenantID,
		Name:           ns.Name,
		NormalizedName: normalize.Key(ns.Name.String()),
		Description:    ns.Description,
		Enabled:        true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := c.checkUnique(ctx, scope, sec); err != nil {
		return Section{}, err
	}

	sec, err := c.storer.Create(ctx, scope, sec)
	if err != nil {
		return Section{}, fmt.Errorf("create: %w", err)
	}

	return sec, nil
}

// Update modifies data about a section within the scope.
func (c *Core) Update(ctx context.Context, scope tenancy.Scope, sec Section, us UpdateSection) (Section, error) {
	ctx, span := otel.AddSpan(ctx, "business.sectionbus.update")
	defer span.End()

	if us.Name != nil {
		sec.Name = *us.Name
		sec.NormalizedName = normalize.Key(us.Name.String())
	}

	if us.Description != nil {
		sec.Description = *us.Description
	}

	if us.Enabled != nil {
		sec.Enabled = *us.Enabled
	}

	sec.UpdatedAt = time.Now()

	if err := c.storer.Update(ctx, scope, sec); err != nil {
		return Section{}, fmt.Errorf("update: %w", err)
	}

	return sec, nil
}

// Delete removes the specified section within the scope.
func (c *Core) Delete(ctx context.Context, scope tenancy.Scope, sec Section) error {
	ctx, span := otel.AddSpan(ctx, "business.sectionbus.delete")
	defer span.End()

	if err := c.storer.Delete(ctx, scope, sec); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// Query retrieves a page of sections within the scope.
func (c *Core) Query(ctx context.Context, scope tenancy.Scope, orderBy order.By, pg page.Page) ([]Section, error) {
	ctx, span := otel.AddSpan(ctx, "business.sectionbus.query")
	defer span.End()

	sections, err := c.storer.Query(ctx, scope, orderBy, pg)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return sections, nil
}

// Count returns the number of sections within the scope.
func (c *Core) Count(ctx context.Context, scope tenancy.Scope) (int, error) {
	ctx, span := otel.AddSpan(ctx, "business.sectionbus.count")
	defer span.End()

	return c.storer.Count(ctx, scope)
}

// QueryByID finds the section by the specified ID within the scope.
func (c *Core) QueryByID(ctx context.Context, scope tenancy.Scope, sectionID uuid.UUID) (Section, error) {
	ctx, span := otel.AddSpan(ctx, "business.sectionbus.queryByID")
	defer span.End()

	sec, err := c.storer.QueryByID(ctx, scope, sectionID)
	if err != nil {
		return Section{}, fmt.Errorf("query: sectionID[%s]: %w", sectionID, err)
	}

	return sec, nil
}

func (c *Core) checkUnique(ctx context.Context, scope tenancy.Scope, sec Section) error {
	checkScope := scope
	if scope.IsSystem() && sec.TenantID != uuid.Nil {
		checkScope = tenancy.New(sec.TenantID)
	}

	if _, err := c.storer.QueryByNormalizedName(ctx, checkScope, sec.NormalizedName); err == nil {
		return fmt.Errorf("create: name[%s]: %w", sec.Name, ErrUniqueName)
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("create: %w", err)
	}

	return nil
}
