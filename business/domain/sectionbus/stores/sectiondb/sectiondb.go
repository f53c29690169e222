// Package sectiondb contains section related CRUD functionality built on the
// generic scoped store.
package sectiondb

import (
	"context"
	"errors"
	"fmt"

	"github.com/getorbital/orbital/business/domain/sectionbus"
	"github.com/getorbital/orbital/business/sdk/order"
	"github.com/getorbital/orbital/business/sdk/page"
	"github.com/getorbital/orbital/business/sdk/scopedb"
	"github.com/getorbital/orbital/business/sdk/sqldb"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var sectionTable = scopedb.Table{
	Name:     "section",
	IDColumn: "section_id",
	Columns: []string{
		"section_id", "tenant_id", "name", "normalized_name",
		"description", "enabled", "created_at", "updated_at",
	},
}

// Store manages the set of APIs for section database access.
type Store struct {
	log    *logger.Logger
	scoped *scopedb.Store[sectionDB]
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *Store {
	return &Store{
		log:    log,
		scoped: scopedb.NewStore[sectionDB](log, db, sectionTable),
	}
}

// NewWithTx constructs a new Store value replacing the sqlx DB value with a
// sqlx DB value that is currently inside a transaction.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (sectionbus.Storer, error) {
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

// Create inserts a new section into the database under the specified scope.
func (s *Store) Create(ctx context.Context, scope tenancy.Scope, sec sectionbus.Section) (sectionbus.Section, error) {
	stamped, err := s.scoped.Create(ctx, scope, toDBSection(sec))
	if err != nil {
		var dupErr sqldb.ErrDBDuplicatedEntry
		if errors.As(err, &dupErr) {
			return sectionbus.Section{}, fmt.Errorf("create: %w", sectionbus.ErrUniqueName)
		}
		return sectionbus.Section{}, fmt.Errorf("create: %w", err)
	}

	return toBusSection(stamped)
}

// Update replaces a section document in the database within the scope.
func (s *Store) Update(ctx context.Context, scope tenancy.Scope, sec sectionbus.Section) error {
	if err := s.scoped.Update(ctx, scope, toDBSection(sec)); err != nil {
		if errors.Is(err, scopedb.ErrNotFound) {
			return sectionbus.ErrNotFound
		}
		return fmt.Errorf("update: %w", err)
	}

	return nil
}

// Delete removes a section from the database within the scope.
func (s *Store) Delete(ctx context.Context, scope tenancy.Scope, sec sectionbus.Section) error {
	if err := s.scoped.Delete(ctx, scope, sec.ID); err != nil {
		if errors.Is(err, scopedb.ErrNotFound) {
			return sectionbus.ErrNotFound
		}
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// Query retrieves a page of sections within the scope.
func (s *Store) Query(ctx context.Context, scope tenancy.Scope, orderBy order.By, pg page.Page) ([]sectionbus.Section, error) {
	dbSections, err := s.scoped.Query(ctx, scope, "", nil, orderBy, pg)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return toBusSections(dbSections)
}

// Count returns the number of sections within the scope.
func (s *Store) Count(ctx context.Context, scope tenancy.Scope) (int, error) {
	return s.scoped.Count(ctx, scope, "", nil)
}

// QueryByID gets the specified section from the database within the scope.
func (s *Store) QueryByID(ctx context.Context, scope tenancy.Scope, sectionID uuid.UUID) (sectionbus.Section, error) {
	dbSection, err := s.scoped.QueryByID(ctx, scope, sectionID)
	if err != nil {
		if errors.Is(err, scopedb.ErrNotFound) {
			return sectionbus.Section{}, sectionbus.ErrNotFound
		}
		return sectionbus.Section{}, fmt.Errorf("querybyid: %w", err)
	}

	return toBusSection(dbSection)
}

// QueryByNormalizedName gets the section holding the normalized name within
// the scope.
func (s *Store) QueryByNormalizedName(ctx context.Context, scope tenancy.Scope, key string) (sectionbus.Section, error) {
	dbSections, err := s.scoped.Query(ctx, scope, "normalized_name = :normalized_name", map[string]any{
		"normalized_name": key,
	}, order.By{}, page.MustParse("1", "1"))
	if err != nil {
		return sectionbus.Section{}, fmt.Errorf("query: %w", err)
	}

	if len(dbSections) == 0 {
		return sectionbus.Section{}, sectionbus.ErrNotFound
	}

	return toBusSection(dbSections[0])
}
