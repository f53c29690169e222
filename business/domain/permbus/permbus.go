// Package permbus provides business access to permissions and their
// assignment to roles and users. The catalog is global; user-role and
// role-permission assignments are tenant-scoped and a user holds a permission
// when at least one enabled role of theirs grants it. The effective set is
// never materialized for a yes/no check.
package permbus

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/getorbital/orbital/business/domain/rolebus"
	"github.com/getorbital/orbital/business/domain/userbus"
	"github.com/getorbital/orbital/business/sdk/sqldb"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/getorbital/orbital/foundation/otel"
	"github.com/google/uuid"
)

// Set of errors for permission operations.
var (
	ErrNotFound         = errors.New("permission not found")
	ErrUniqueName       = errors.New("permission name is not unique")
	ErrInvalidName      = errors.New("invalid permission name")
	ErrAccessDenied     = errors.New("access denied")
	ErrSystemPermission = errors.New("system permissions cannot be modified")
)

var permNameRegEx = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)+$`)

// Storer defines the behavior required by the permbus to interact with the
// database.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	CreatePermission(ctx context.Context, p Permission) error
	DeletePermission(ctx context.Context, p Permission) error
	QueryPermissions(ctx context.Context) ([]Permission, error)
	QueryPermissionByID(ctx context.Context, permissionID uuid.UUID) (Permission, error)
	QueryPermissionByName(ctx context.Context, permName string) (Permission, error)
	AssignRoleToUser(ctx context.Context, a Assignment) error
	RemoveRoleFromUser(ctx context.Context, scope tenancy.Scope, userID uuid.UUID, roleID uuid.UUID) error
	AssignPermissionToRole(ctx context.Context, g Grant) error
	RemovePermissionFromRole(ctx context.Context, scope tenancy.Scope, roleID uuid.UUID, permissionID uuid.UUID) error
	UserHasPermission(ctx context.Context, scope tenancy.Scope, userID uuid.UUID, permName string) (bool, error)
	QueryUserPermissions(ctx context.Context, scope tenancy.Scope, userID uuid.UUID) ([]Permission, error)
	QueryRolePermissions(ctx context.Context, scope tenancy.Scope, roleID uuid.UUID) ([]Permission, error)
	QueryUserRoleIDs(ctx context.Context, scope tenancy.Scope, userID uuid.UUID) ([]uuid.UUID, error)
	QueryAssignments(ctx context.Context) ([]Assignment, error)
	QueryGrantRules(ctx context.Context) ([]GrantRule, error)
}

// Core manages the set of APIs for permission access. The user and role
// cores validate ownership before any assignment is written.
type Core struct {
	storer  Storer
	userBus *userbus.Core
	roleBus *rolebus.Core
	log     *logger.Logger
}

// NewCore constructs a core for permission api access.
func NewCore(log *logger.Logger, userBus *userbus.Core, roleBus *rolebus.Core, storer Storer) *Core {
	return &Core{
		storer:  storer,
		userBus: userBus,
		roleBus: roleBus,
		log:     log,
	}
}

// NewWithTx constructs a new Core value replacing the Storer and the
// dependent cores with values that are currently inside a transaction.
func (c *Core) NewWithTx(tx sqldb.CommitRollbacker) (*Core, error) {
	storer, err := c.storer.NewWithTx(tx)
	if err != nil {
		return nil, fmt.Errorf("newWithTx: %w", err)
	}

	userBus, err := c.userBus.NewWithTx(tx)
	if err != nil {
		return nil, fmt.Errorf("newWithTx: %w", err)
	}

	roleBus, err := c.roleBus.NewWithTx(tx)
	if err != nil {
		return nil, fmt.Errorf("newWithTx: %w", err)
	}

	return NewCore(c.log, userBus, roleBus, storer), nil
}

// CreatePermission adds an entry to the global catalog. System scope only.
func (c *Core) CreatePermission(ctx context.Context, scope tenancy.Scope, np NewPermission) (Permission, error) {
	ctx, span := otel.AddSpan(ctx, "business.permbus.createPermission")
	defer span.End()

	if !scope.IsSystem() {
		return Permission{}, fmt.Errorf("createpermission: scope[%s]: %w", scope, ErrAccessDenied)
	}

	if !permNameRegEx.MatchString(np.Name) {
		return Permission{}, fmt.Errorf("createpermission: name[%s]: %w", np.Name, ErrInvalidName)
	}

	if _, err := c.storer.QueryPermissionByName(ctx, np.Name); err == nil {
		return Permission{}, fmt.Errorf("createpermission: name[%s]: %w", np.Name, ErrUniqueName)
	} else if !errors.Is(err, ErrNotFound) {
		return Permission{}, fmt.Errorf("createpermission: %w", err)
	}

	p := Permission{
		ID:          uuid.New(),
		Name:        np.Name,
		Description: np.Description,
		IsSystem:    false,
	}

	if err := c.storer.CreatePermission(ctx, p); err != nil {
		return Permission{}, fmt.Errorf("createpermission: %w", err)
	}

	return p, nil
}

// DeletePermission removes a catalog entry. System scope only; entries
// flagged as system permissions are refused.
func (c *Core) DeletePermission(ctx context.Context, scope tenancy.Scope, p Permission) error {
	ctx, span := otel.AddSpan(ctx, "business.permbus.deletePermission")
	defer span.End()

	if !scope.IsSystem() {
		return fmt.Errorf("deletepermission: scope[%s]: %w", scope, ErrAccessDenied)
	}

	if p.IsSystem {
		return fmt.Errorf("deletepermission: name[%s]: %w", p.Name, ErrSystemPermission)
	}

	if err := c.storer.DeletePermission(ctx, p); err != nil {
		return fmt.Errorf("deletepermission: %w", err)
	}

	return nil
}

// QueryPermissions retrieves the global catalog. Any scope may read it.
func (c *Core) QueryPermissions(ctx context.Context) ([]Permission, error) {
	ctx, span := otel.AddSpan(ctx, "business.permbus.queryPermissions")
	defer span.End()

	perms, err := c.storer.QueryPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return perms, nil
}

// QueryPermissionByName finds the catalog entry holding the name.
func (c *Core) QueryPermissionByName(ctx context.Context, permName string) (Permission, error) {
	ctx, span := otel.AddSpan(ctx, "business.permbus.queryPermissionByName")
	defer span.End()

	p, err := c.storer.QueryPermissionByName(ctx, permName)
	if err != nil {
		return Permission{}, fmt.Errorf("query: name[%s]: %w", permName, err)
	}

	return p, nil
}

// AssignRoleToUser grants the role to the user. Both must exist inside the
// scope's boundary and belong to the same tenant; the assignment is stamped
// with that tenant. Assigning an already held role is a no-op.
func (c *Core) AssignRoleToUser(ctx context.Context, scope tenancy.Scope, userID uuid.UUID, roleID uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.permbus.assignRoleToUser")
	defer span.End()

	rl, usr, err := c.ownership(ctx, scope, userID, roleID)
	if err != nil {
		return err
	}

	a := Assignment{
		UserID:    usr.ID,
		RoleID:    rl.ID,
		TenantID:  rl.TenantID,
		CreatedAt: time.Now(),
	}

	if err := c.storer.AssignRoleToUser(ctx, a); err != nil {
		return fmt.Errorf("assignroletouser: %w", err)
	}

	return nil
}

// RemoveRoleFromUser revokes the role from the user within the scope.
// Removing an assignment that does not exist is a no-op.
func (c *Core) RemoveRoleFromUser(ctx context.Context, scope tenancy.Scope, userID uuid.UUID, roleID uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.permbus.removeRoleFromUser")
	defer span.End()

	if err := c.storer.RemoveRoleFromUser(ctx, scope, userID, roleID); err != nil {
		return fmt.Errorf("removerolefromuser: %w", err)
	}

	return nil
}

// AssignPermissionToRole grants the permission to the role. The role must
// exist inside the scope's boundary; the grant is stamped with the role's
// tenant. Granting an already granted permission is a no-op.
func (c *Core) AssignPermissionToRole(ctx context.Context, scope tenancy.Scope, roleID uuid.UUID, permissionID uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.permbus.assignPermissionToRole")
	defer span.End()

	rl, err := c.roleBus.QueryByID(ctx, scope, roleID)
	if err != nil {
		return fmt.Errorf("assignpermissiontorole: %w", err)
	}

	p, err := c.storer.QueryPermissionByID(ctx, permissionID)
	if err != nil {
		return fmt.Errorf("assignpermissiontorole: %w", err)
	}

	g := Grant{
		RoleID:       rl.ID,
		PermissionID: p.ID,
		TenantID:     rl.TenantID,
		CreatedAt:    time.Now(),
	}

	if err := c.storer.AssignPermissionToRole(ctx, g); err != nil {
		return fmt.Errorf("assignpermissiontorole: %w", err)
	}

	return nil
}

// RemovePermissionFromRole revokes the permission from the role within the
// scope. Revoking an absent grant is a no-op.
func (c *Core) RemovePermissionFromRole(ctx context.Context, scope tenancy.Scope, roleID uuid.UUID, permissionID uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.permbus.removePermissionFromRole")
	defer span.End()

	if err := c.storer.RemovePermissionFromRole(ctx, scope, roleID, permissionID); err != nil {
		return fmt.Errorf("removepermissionfromrole: %w", err)
	}

	return nil
}

// UserHasPermission reports whether any enabled role held by the user within
// the scope grants the permission. The check short-circuits on the first
// matching row. The system scope is not subject to permission checks and
// always answers true.
func (c *Core) UserHasPermission(ctx context.Context, scope tenancy.Scope, userID uuid.UUID, permName string) (bool, error) {
	ctx, span := otel.AddSpan(ctx, "business.permbus.userHasPermission")
	defer span.End()

	if scope.IsSystem() {
		return true, nil
	}

	has, err := c.storer.UserHasPermission(ctx, scope, userID, permName)
	if err != nil {
		return false, fmt.Errorf("userhaspermission: userID[%s] perm[%s]: %w", userID, permName, err)
	}

	return has, nil
}

// QueryUserPermissions retrieves the deduplicated set of permissions the
// user holds through enabled roles within the scope.
func (c *Core) QueryUserPermissions(ctx context.Context, scope tenancy.Scope, userID uuid.UUID) ([]Permission, error) {
	ctx, span := otel.AddSpan(ctx, "business.permbus.queryUserPermissions")
	defer span.End()

	perms, err := c.storer.QueryUserPermissions(ctx, scope, userID)
	if err != nil {
		return nil, fmt.Errorf("queryuserpermissions: userID[%s]: %w", userID, err)
	}

	return perms, nil
}

// QueryRolePermissions retrieves the permissions granted to the role within
// the scope.
func (c *Core) QueryRolePermissions(ctx context.Context, scope tenancy.Scope, roleID uuid.UUID) ([]Permission, error) {
	ctx, span := otel.AddSpan(ctx, "business.permbus.queryRolePermissions")
	defer span.End()

	perms, err := c.storer.QueryRolePermissions(ctx, scope, roleID)
	if err != nil {
		return nil, fmt.Errorf("queryrolepermissions: roleID[%s]: %w", roleID, err)
	}

	return perms, nil
}

// ownership loads the role and user through their scoped buses. Inside a
// tenant scope a foreign row is simply not found; under the system scope both
// rows load, so the tenant stamps are compared directly.
func (c *Core) ownership(ctx context.Context, scope tenancy.Scope, userID uuid.UUID, roleID uuid.UUID) (rolebus.Role, userbus.User, error) {
	rl, err := c.roleBus.QueryByID(ctx, scope, roleID)
	if err != nil {
		return rolebus.Role{}, userbus.User{}, fmt.Errorf("ownership: %w", err)
	}

	usr, err := c.userBus.QueryByID(ctx, scope, userID)
	if err != nil {
		return rolebus.Role{}, userbus.User{}, fmt.Errorf("ownership: %w", err)
	}

	if usr.TenantID != rl.TenantID {
		return rolebus.Role{}, userbus.User{}, fmt.Errorf("ownership: user[%s] role[%s]: %w", usr.TenantID, rl.TenantID, tenancy.ErrTenantMismatch)
	}

	return rl, usr, nil
}
