// Package permdb contains permission related CRUD functionality. The
// assignment tables carry a denormalized tenant_id, so every check and
// listing filters the boundary without joining back to users or roles.
package permdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/getorbital/orbital/business/domain/permbus"
	"github.com/getorbital/orbital/business/sdk/sqldb"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Store manages the set of APIs for permission database access.
type Store struct {
	log *logger.Logger
	db  sqlx.ExtContext
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *Store {
	return &Store{
		log: log,
		db:  db,
	}
}

// NewWithTx constructs a new Store value replacing the sqlx DB value with a
// sqlx DB value that is currently inside a transaction.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (permbus.Storer, error) {
	ec, err := sqldb.GetExtContext(tx)
	if err != nil {
		return nil, err
	}

	store := Store{
		log: s.log,
		db:  ec,
	}

	return &store, nil
}

// CreatePermission inserts a catalog entry into the database.
func (s *Store) CreatePermission(ctx context.Context, p permbus.Permission) error {
	const q = `
	INSERT INTO permission
		(permission_id, name, description, is_system)
	VALUES
		(:permission_id, :name, :description, :is_system)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBPermission(p)); err != nil {
		var dupErr sqldb.ErrDBDuplicatedEntry
		if errors.As(err, &dupErr) {
			return fmt.Errorf("namedexeccontext: %w", permbus.ErrUniqueName)
		}
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// DeletePermission removes a catalog entry. The schema cascades the delete
// to any grants referencing it.
func (s *Store) DeletePermission(ctx context.Context, p permbus.Permission) error {
	const q = `
	DELETE FROM
		permission
	WHERE
		permission_id = :permission_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBPermission(p)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// QueryPermissions retrieves the global catalog.
func (s *Store) QueryPermissions(ctx context.Context) ([]permbus.Permission, error) {
	const q = `
	SELECT
		permission_id, name, description, is_system
	FROM
		permission
	ORDER BY
		name`

	var dbPerms []permissionDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, struct{}{}, &dbPerms); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusPermissions(dbPerms), nil
}

// QueryPermissionByID gets the specified catalog entry.
func (s *Store) QueryPermissionByID(ctx context.Context, permissionID uuid.UUID) (permbus.Permission, error) {
	data := struct {
		ID string `db:"permission_id"`
	}{
		ID: permissionID.String(),
	}

	const q = `
	SELECT
		permission_id, name, description, is_system
	FROM
		permission
	WHERE
		permission_id = :permission_id`

	var dbPerm permissionDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbPerm); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return permbus.Permission{}, permbus.ErrNotFound
		}
		return permbus.Permission{}, fmt.Errorf("namedquerystruct: %w", err)
	}

	return toBusPermission(dbPerm), nil
}

// QueryPermissionByName gets the catalog entry holding the name.
func (s *Store) QueryPermissionByName(ctx context.Context, permName string) (permbus.Permission, error) {
	data := struct {
		Name string `db:"name"`
	}{
		Name: permName,
	}

	const q = `
	SELECT
		permission_id, name, description, is_system
	FROM
		permission
	WHERE
		name = :name`

	var dbPerm permissionDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbPerm); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return permbus.Permission{}, permbus.ErrNotFound
		}
		return permbus.Permission{}, fmt.Errorf("namedquerystruct: %w", err)
	}

	return toBusPermission(dbPerm), nil
}

// AssignRoleToUser inserts a user-role assignment. Re-assigning is a no-op.
func (s *Store) AssignRoleToUser(ctx context.Context, a permbus.Assignment) error {
	const q = `
	INSERT INTO user_role
		(user_id, role_id, tenant_id, created_at)
	VALUES
		(:user_id, :role_id, :tenant_id, :created_at)
	ON CONFLICT DO NOTHING`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBAssignment(a)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// RemoveRoleFromUser deletes a user-role assignment within the scope.
// Deleting an absent assignment is a no-op.
func (s *Store) RemoveRoleFromUser(ctx context.Context, scope tenancy.Scope, userID uuid.UUID, roleID uuid.UUID) error {
	data := map[string]any{
		"user_id":   userID.String(),
		"role_id":   roleID.String(),
		"tenant_id": scope.TenantID().String(),
		"system":    scope.IsSystem(),
	}

	const q = `
	DELETE FROM
		user_role
	WHERE
		user_id = :user_id AND role_id = :role_id AND (:system OR tenant_id = :tenant_id)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, data); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// AssignPermissionToRole inserts a role-permission grant. Re-granting is a
// no-op.
func (s *Store) AssignPermissionToRole(ctx context.Context, g permbus.Grant) error {
	const q = `
	INSERT INTO role_permission
		(role_id, permission_id, tenant_id, created_at)
	VALUES
		(:role_id, :permission_id, :tenant_id, :created_at)
	ON CONFLICT DO NOTHING`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBGrant(g)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// RemovePermissionFromRole deletes a role-permission grant within the scope.
// Deleting an absent grant is a no-op.
func (s *Store) RemovePermissionFromRole(ctx context.Context, scope tenancy.Scope, roleID uuid.UUID, permissionID uuid.UUID) error {
	data := map[string]any{
		"role_id":       roleID.String(),
		"permission_id": permissionID.String(),
		"tenant_id":     scope.TenantID().String(),
		"system":        scope.IsSystem(),
	}

	const q = `
	DELETE FROM
		role_permission
	WHERE
		role_id = :role_id AND permission_id = :permission_id AND (:system OR tenant_id = :tenant_id)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, data); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// UserHasPermission reports whether any enabled role held by the user grants
// the permission. The statement stops at the first matching row.
func (s *Store) UserHasPermission(ctx context.Context, scope tenancy.Scope, userID uuid.UUID, permName string) (bool, error) {
	data := map[string]any{
		"user_id":   userID.String(),
		"name":      permName,
		"tenant_id": scope.TenantID().String(),
		"system":    scope.IsSystem(),
		"enabled":   true,
	}

	const q = `
	SELECT
		1 AS found
	FROM
		user_role ur
	JOIN
		role r ON r.role_id = ur.role_id
	JOIN
		role_permission rp ON rp.role_id = ur.role_id
	JOIN
		permission p ON p.permission_id = rp.permission_id
	WHERE
		ur.user_id = :user_id AND
		p.name = :name AND
		r.enabled = :enabled AND
		(:system OR ur.tenant_id = :tenant_id) AND
		(:system OR rp.tenant_id = :tenant_id)
	LIMIT 1`

	var result struct {
		Found int `db:"found"`
	}

	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &result); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("namedquerystruct: %w", err)
	}

	return true, nil
}

// QueryUserPermissions retrieves the deduplicated set of permissions the
// user holds through enabled roles within the scope.
func (s *Store) QueryUserPermissions(ctx context.Context, scope tenancy.Scope, userID uuid.UUID) ([]permbus.Permission, error) {
	data := map[string]any{
		"user_id":   userID.String(),
		"tenant_id": scope.TenantID().String(),
		"system":    scope.IsSystem(),
		"enabled":   true,
	}

	const q = `
	SELECT DISTINCT
		p.permission_id, p.name, p.description, p.is_system
	FROM
		user_role ur
	JOIN
		role r ON r.role_id = ur.role_id
	JOIN
		role_permission rp ON rp.role_id = ur.role_id
	JOIN
		permission p ON p.permission_id = rp.permission_id
	WHERE
		ur.user_id = :user_id AND
		r.enabled = :enabled AND
		(:system OR ur.tenant_id = :tenant_id) AND
		(:system OR rp.tenant_id = :tenant_id)
	ORDER BY
		p.name`

	var dbPerms []permissionDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbPerms); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusPermissions(dbPerms), nil
}

// QueryRolePermissions retrieves the permissions granted to the role within
// the scope.
func (s *Store) QueryRolePermissions(ctx context.Context, scope tenancy.Scope, roleID uuid.UUID) ([]permbus.Permission, error) {
	data := map[string]any{
		"role_id":   roleID.String(),
		"tenant_id": scope.TenantID().String(),
		"system":    scope.IsSystem(),
	}

	const q = `
	SELECT
		p.permission_id, p.name, p.description, p.is_system
	FROM
		role_permission rp
	JOIN
		permission p ON p.permission_id = rp.permission_id
	WHERE
		rp.role_id = :role_id AND
		(:system OR rp.tenant_id = :tenant_id)
	ORDER BY
		p.name`

	var dbPerms []permissionDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbPerms); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusPermissions(dbPerms), nil
}

// QueryUserRoleIDs retrieves the role ids assigned to the user within the
// scope.
func (s *Store) QueryUserRoleIDs(ctx context.Context, scope tenancy.Scope, userID uuid.UUID) ([]uuid.UUID, error) {
	data := map[string]any{
		"user_id":   userID.String(),
		"tenant_id": scope.TenantID().String(),
		"system":    scope.IsSystem(),
	}

	const q = `
	SELECT
		role_id
	FROM
		user_role
	WHERE
		user_id = :user_id AND (:system OR tenant_id = :tenant_id)`

	var results []struct {
		RoleID uuid.UUID `db:"role_id"`
	}

	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &results); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	ids := make([]uuid.UUID, len(results))
	for i, r := range results {
		ids[i] = r.RoleID
	}

	return ids, nil
}

// QueryAssignments retrieves every user-role assignment. Used to warm the
// permission cache at startup.
func (s *Store) QueryAssignments(ctx context.Context) ([]permbus.Assignment, error) {
	const q = `
	SELECT
		user_id, role_id, tenant_id, created_at
	FROM
		user_role`

	var dbAssignments []assignmentDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, struct{}{}, &dbAssignments); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusAssignments(dbAssignments), nil
}

// QueryGrantRules retrieves every role-permission grant joined with its
// permission name. Used to warm the permission cache at startup.
func (s *Store) QueryGrantRules(ctx context.Context) ([]permbus.GrantRule, error) {
	const q = `
	SELECT
		rp.role_id, rp.tenant_id, p.name
	FROM
		role_permission rp
	JOIN
		permission p ON p.permission_id = rp.permission_id`

	var dbRules []grantRuleDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, struct{}{}, &dbRules); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusGrantRules(dbRules), nil
}
