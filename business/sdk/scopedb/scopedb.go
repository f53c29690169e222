// Package scopedb provides a generic tenant-scoped repository over sqlx.
// Every operation takes the ambient tenancy.Scope explicitly and applies the
// tenant filter inside the query itself, so no store instance ever captures
// a tenant at construction time. Stores for concrete entities compose a
// Store value rather than inheriting behavior.
package scopedb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getorbital/orbital/business/sdk/order"
	"github.com/getorbital/orbital/business/sdk/page"
	"github.com/getorbital/orbital/business/sdk/sqldb"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Set of errors returned by scoped stores.
var (
	// ErrNotFound covers both a missing row and a row owned by a foreign
	// tenant. The two cases are indistinguishable on purpose so existence
	// never leaks across tenant boundaries.
	ErrNotFound = errors.New("entity not found")

	// ErrMissingTenant indicates a system-scope write without an explicit
	// tenant id. The schema requires one on every scoped row.
	ErrMissingTenant = errors.New("tenant id required for system scope write")
)

// Scoped is the capability a db model must provide to live in a scoped
// store. WithTenantID returns a stamped copy; models stay immutable values.
type Scoped[T any] interface {
	EntityID() uuid.UUID
	GetTenantID() uuid.UUID
	WithTenantID(tenantID uuid.UUID) T
}

// Table describes the relation a store operates on. Columns lists every
// column including the id and tenant_id columns, matching the db tags of T.
type Table struct {
	Name     string
	IDColumn string
	Columns  []string
}

// Store manages tenant-scoped access to one table.
type Store[T Scoped[T]] struct {
	log   *logger.Logger
	db    sqlx.ExtContext
	table Table
}

// NewStore constructs a scoped store for the specified table.
func NewStore[T Scoped[T]](log *logger.Logger, db sqlx.ExtContext, table Table) *Store[T] {
	return &Store[T]{
		log:   log,
		db:    db,
		table: table,
	}
}

// NewWithTx constructs a new Store value replacing the sqlx DB value with a
// sqlx DB value that is currently inside a transaction.
func (s *Store[T]) NewWithTx(tx sqldb.CommitRollbacker) (*Store[T], error) {
	ec, err := sqldb.GetExtContext(tx)
	if err != nil {
		return nil, err
	}

	return NewStore[T](s.log, ec, s.table), nil
}

// Create inserts the entity under the specified scope. A tenant-bound scope
// stamps an unset tenant id and rejects a conflicting one with
// tenancy.ErrTenantMismatch before anything reaches the database. The system
// scope writes any tenant but must name one.
func (s *Store[T]) Create(ctx context.Context, scope tenancy.Scope, ent T) (T, error) {
	var zero T

	switch {
	case scope.IsSystem():
		if ent.GetTenantID() == uuid.Nil {
			return zero, ErrMissingTenant
		}

	case ent.GetTenantID() == uuid.Nil:
		ent = ent.WithTenantID(scope.TenantID())

	case ent.GetTenantID() != scope.TenantID():
		return zero, fmt.Errorf("create %s: entity[%s] stamped[%s] scope[%s]: %w",
			s.table.Name, ent.EntityID(), ent.GetTenantID(), scope, tenancy.ErrTenantMismatch)
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.table.Name,
		strings.Join(s.table.Columns, ", "),
		":"+strings.Join(s.table.Columns, ", :"))

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, ent); err != nil {
		return zero, fmt.Errorf("namedexeccontext: %w", err)
	}

	return ent, nil
}

// QueryByID gets the specified entity, filtered by the scope. A row owned by
// another tenant reports ErrNotFound.
func (s *Store[T]) QueryByID(ctx context.Context, scope tenancy.Scope, entityID uuid.UUID) (T, error) {
	var zero T

	data := map[string]any{
		"entity_id": entityID.String(),
		"tenant_id": scope.TenantID().String(),
		"system":    s.auditSystem(ctx, scope),
	}

	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = :entity_id AND (:system OR tenant_id = :tenant_id)",
		strings.Join(s.table.Columns, ", "), s.table.Name, s.table.IDColumn)

	var ent T
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &ent); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("namedquerystruct: %w", err)
	}

	return ent, nil
}

// Query retrieves entities matching the extra clause, always ANDed with the
// tenant filter. The clause references columns directly and binds through
// the args map. The order field must name one of the table's columns.
func (s *Store[T]) Query(ctx context.Context, scope tenancy.Scope, clause string, args map[string]any, orderBy order.By, pg page.Page) ([]T, error) {
	data := map[string]any{
		"tenant_id":     scope.TenantID().String(),
		"system":        s.auditSystem(ctx, scope),
		"offset":        (pg.Number() - 1) * pg.RowsPerPage(),
		"rows_per_page": pg.RowsPerPage(),
	}
	for k, v := range args {
		data[k] = v
	}

	orderClause, err := s.orderByClause(orderBy)
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf("SELECT %s FROM %s WHERE (:system OR tenant_id = :tenant_id)",
		strings.Join(s.table.Columns, ", "), s.table.Name)

	if clause != "" {
		q += " AND (" + clause + ")"
	}

	q += orderClause
	q += " LIMIT :rows_per_page OFFSET :offset"

	var ents []T
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &ents); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return ents, nil
}

// Count returns the number of entities matching the extra clause within the
// scope.
func (s *Store[T]) Count(ctx context.Context, scope tenancy.Scope, clause string, args map[string]any) (int, error) {
	data := map[string]any{
		"tenant_id": scope.TenantID().String(),
		"system":    s.auditSystem(ctx, scope),
	}
	for k, v := range args {
		data[k] = v
	}

	q := fmt.Sprintf("SELECT COUNT(1) AS count FROM %s WHERE (:system OR tenant_id = :tenant_id)", s.table.Name)

	if clause != "" {
		q += " AND (" + clause + ")"
	}

	var count struct {
		Count int `db:"count"`
	}
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &count); err != nil {
		return 0, fmt.Errorf("namedquerystruct: %w", err)
	}

	return count.Count, nil
}

// Update replaces the entity row within the scope. An entity stamped with a
// foreign tenant is rejected before the write; a write that matches no row
// inside the boundary reports ErrNotFound, whether the row is absent or
// foreign.
func (s *Store[T]) Update(ctx context.Context, scope tenancy.Scope, ent T) error {
	if !scope.IsSystem() && ent.GetTenantID() != scope.TenantID() {
		return fmt.Errorf("update %s: entity[%s] stamped[%s] scope[%s]: %w",
			s.table.Name, ent.EntityID(), ent.GetTenantID(), scope, tenancy.ErrTenantMismatch)
	}

	sets := make([]string, 0, len(s.table.Columns))
	for _, col := range s.table.Columns {
		if col == s.table.IDColumn || col == "tenant_id" {
			continue
		}
		sets = append(sets, col+" = :"+col)
	}

	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = :%s AND tenant_id = :tenant_id",
		s.table.Name, strings.Join(sets, ", "), s.table.IDColumn, s.table.IDColumn)

	rows, err := sqldb.NamedExecContextCount(ctx, s.log, s.db, q, ent)
	if err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes the specified entity within the scope. Deleting a row
// outside the boundary reports ErrNotFound.
func (s *Store[T]) Delete(ctx context.Context, scope tenancy.Scope, entityID uuid.UUID) error {
	data := map[string]any{
		"entity_id": entityID.String(),
		"tenant_id": scope.TenantID().String(),
		"system":    s.auditSystem(ctx, scope),
	}

	q := fmt.Sprintf("DELETE FROM %s WHERE %s = :entity_id AND (:system OR tenant_id = :tenant_id)",
		s.table.Name, s.table.IDColumn)

	rows, err := sqldb.NamedExecContextCount(ctx, s.log, s.db, q, data)
	if err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// orderByClause validates the order field against the table's columns before
// it is interpolated into the statement.
func (s *Store[T]) orderByClause(orderBy order.By) (string, error) {
	if orderBy.Field == "" {
		return fmt.Sprintf(" ORDER BY %s ASC", s.table.IDColumn), nil
	}

	for _, col := range s.table.Columns {
		if col == orderBy.Field {
			return fmt.Sprintf(" ORDER BY %s %s", orderBy.Field, orderBy.Direction), nil
		}
	}

	return "", fmt.Errorf("field %q does not exist on table %s", orderBy.Field, s.table.Name)
}

// auditSystem logs every unscoped access so crossing the tenant boundary is
// always an explicit, visible code path.
func (s *Store[T]) auditSystem(ctx context.Context, scope tenancy.Scope) bool {
	if !scope.IsSystem() {
		return false
	}

	s.log.Info(ctx, "scopedb: system scope access", "table", s.table.Name)

	return true
}
