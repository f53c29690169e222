// Package userbus provides business access to users. Users belong to exactly
// one tenant; the same email or username can exist again under a different
// tenant. Uniqueness is enforced per tenant over normalized keys, with the
// database constraint as backstop.
package userbus

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
	"github.com/getorbital/orbital/business/types/password"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/getorbital/orbital/foundation/otel"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Set of errors for user operations.
var (
	ErrNotFound              = errors.New("user not found")
	ErrUniqueUsername        = errors.New("username is not unique within the tenant")
	ErrUniqueEmail           = errors.New("email is not unique within the tenant")
	ErrAuthenticationFailure = errors.New("authentication failed")
)

// Storer defines the behavior required by the userbus to interact with the
// database. Every method takes the ambient scope explicitly.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, scope tenancy.Scope, usr User) (User, error)
	Update(ctx context.Context, scope tenancy.Scope, usr User) error
	Delete(ctx context.Context, scope tenancy.Scope, usr User) error
	Query(ctx context.Context, scope tenancy.Scope, orderBy order.By, pg page.Page) ([]User, error)
	Count(ctx context.Context, scope tenancy.Scope) (int, error)
	QueryByID(ctx context.Context, scope tenancy.Scope, userID uuid.UUID) (User, error)
	QueryByNormalizedUsername(ctx context.Context, scope tenancy.Scope, key string) (User, error)
	QueryByNormalizedEmail(ctx context.Context, scope tenancy.Scope, key string) (User, error)
}

// Core manages the set of APIs for user access.
type Core struct {
	storer Storer
	log    *logger.Logger
}

// NewCore constructs a core for user api access.
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

// Create adds a new user under the specified scope. The tenant id is taken
// from the scope unless the system scope names one explicitly. Uniqueness of
// the normalized username and email is checked within the target tenant
// before the write.
func (c *Core) Create(ctx context.Context, scope tenancy.Scope, nu NewUser) (User, error) {
	ctx, span := otel.AddSpan(ctx, "business.userbus.create")
	defer span.End()

	hash, err := bcrypt.GenerateFromPassword(nu.Password.Bytes(), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("generatefrompassword: %w", err)
	}

	now := time.Now()

	usr := User{
		ID:                 uuid.New(),
		TenantID:           nu.TenantID,
		Username:           nu.Username,
		NormalizedUsername: normalize.Key(nu.Username.String()),
		Email:              nu.Email,
		NormalizedEmail:    normalize.Key(nu.Email.Address),
		FullName:           nu.FullName,
		PasswordHash:       hash,
		Enabled:            true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := c.checkUnique(ctx, scope, usr); err != nil {
		return User{}, err
	}

	usr, err = c.storer.Create(ctx, scope, usr)
	if err != nil {
		return User{}, fmt.Errorf("create: %w", err)
	}

	return usr, nil
}

// Update modifies data about a user within the scope.
func (c *Core) Update(ctx context.Context, scope tenancy.Scope, usr User, uu UpdateUser) (User, error) {
	ctx, span := otel.AddSpan(ctx, "business.userbus.update")
	defer span.End()

	if uu.FullName != nil {
		usr.FullName = *uu.FullName
	}

	if uu.Email != nil {
		usr.Email = *uu.Email
		usr.NormalizedEmail = normalize.Key(uu.Email.Address)
	}

	if uu.Password != nil {
		hash, err := bcrypt.GenerateFromPassword(uu.Password.Bytes(), bcrypt.DefaultCost)
		if err != nil {
			return User{}, fmt.Errorf("generatefrompassword: %w", err)
		}
		usr.PasswordHash = hash
	}

	if uu.Enabled != nil {
		usr.Enabled = *uu.Enabled
	}

	usr.UpdatedAt = time.Now()

	if err := c.storer.Update(ctx, scope, usr); err != nil {
		return User{}, fmt.Errorf("update: %w", err)
	}

	return usr, nil
}

// Delete removes the specified user within the scope.
func (c *Core) Delete(ctx context.Context, scope tenancy.Scope, usr User) error {
	ctx, span := otel.AddSpan(ctx, "business.userbus.delete")
	defer span.End()

	if err := c.storer.Delete(ctx, scope, usr); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// Query retrieves a page of users within the scope. In the system scope the
// page spans all tenants.
func (c *Core) Query(ctx context.Context, scope tenancy.Scope, orderBy order.By, pg page.Page) ([]User, error) {
	ctx, span := otel.AddSpan(ctx, "business.userbus.query")
	defer span.End()

	users, err := c.storer.Query(ctx, scope, orderBy, pg)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return users, nil
}

// Count returns the number of users within the scope.
func (c *Core) Count(ctx context.Context, scope tenancy.Scope) (int, error) {
	ctx, span := otel.AddSpan(ctx, "business.userbus.count")
	defer span.End()

	return c.storer.Count(ctx, scope)
}

// QueryByID finds the user by the specified ID within the scope. A user owned
// by another tenant reports ErrNotFound.
func (c *Core) QueryByID(ctx context.Context, scope tenancy.Scope, userID uuid.UUID) (User, error) {
	ctx, span := otel.AddSpan(ctx, "business.userbus.queryByID")
	defer span.End()

	usr, err := c.storer.QueryByID(ctx, scope, userID)
	if err != nil {
		return User{}, fmt.Errorf("query: userID[%s]: %w", userID, err)
	}

	return usr, nil
}

// QueryByUsername finds the user by username within the scope. The lookup is
// performed over the normalized key, so it is case and accent insensitive.
func (c *Core) QueryByUsername(ctx context.Context, scope tenancy.Scope, username string) (User, error) {
	ctx, span := otel.AddSpan(ctx, "business.userbus.queryByUsername")
	defer span.End()

	usr, err := c.storer.QueryByNormalizedUsername(ctx, scope, normalize.Key(username))
	if err != nil {
		return User{}, fmt.Errorf("query: username[%s]: %w", username, err)
	}

	return usr, nil
}

// QueryByEmail finds the user by email within the scope over the normalized
// key.
func (c *Core) QueryByEmail(ctx context.Context, scope tenancy.Scope, email string) (User, error) {
	ctx, span := otel.AddSpan(ctx, "business.userbus.queryByEmail")
	defer span.End()

	usr, err := c.storer.QueryByNormalizedEmail(ctx, scope, normalize.Key(email))
	if err != nil {
		return User{}, fmt.Errorf("query: email[%s]: %w", email, err)
	}

	return usr, nil
}

// Authenticate finds a user by username within the scope and validates the
// password. Any failure reports ErrAuthenticationFailure without detail.
func (c *Core) Authenticate(ctx context.Context, scope tenancy.Scope, username string, pass password.Password) (User, error) {
	ctx, span := otel.AddSpan(ctx, "business.userbus.authenticate")
	defer span.End()

	usr, err := c.storer.QueryByNormalizedUsername(ctx, scope, normalize.Key(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, fmt.Errorf("query: %w", ErrAuthenticationFailure)
		}
		return User{}, fmt.Errorf("query: %w", err)
	}

	if !usr.Enabled {
		return User{}, fmt.Errorf("disabled: %w", ErrAuthenticationFailure)
	}

	if err := bcrypt.CompareHashAndPassword(usr.PasswordHash, pass.Bytes()); err != nil {
		return User{}, fmt.Errorf("comparehashandpassword: %w", ErrAuthenticationFailure)
	}

	return usr, nil
}

// checkUnique verifies no user in the target tenant already holds the
// normalized username or email. The check runs against the tenant the user
// will be stamped with, not against the whole system, so the system scope
// cannot trip over another tenant's users.
func (c *Core) checkUnique(ctx context.Context, scope tenancy.Scope, usr User) error {
	checkScope := scope
	if scope.IsSystem() && usr.TenantID != uuid.Nil {
		checkScope = tenancy.New(usr.TenantID)
	}

	if _, err := c.storer.QueryByNormalizedUsername(ctx, checkScope, usr.NormalizedUsername); err == nil {
		return fmt.Errorf("create: username[%s]: %w", usr.Username, ErrUniqueUsername)
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("create: %w", err)
	}

	if _, err := c.storer.QueryByNormalizedEmail(ctx, checkScope, usr.NormalizedEmail); err == nil {
		return fmt.Errorf("create: email[%s]: %w", usr.Email.Address, ErrUniqueEmail)
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("create: %w", err)
	}

	return nil
}
