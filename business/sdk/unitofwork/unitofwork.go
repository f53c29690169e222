// Package unitofwork provides a transaction boundary over the business
// layer. One unit binds every bus to the same database transaction and the
// same scope, so a mixed batch of writes either lands completely or not at
// all. Writes execute eagerly on the transaction; the unit counts the rows
// they affect and nothing is visible outside until Commit.
package unitofwork

import (
	"context"
	"errors"
	"fmt"

	"github.com/getorbital/orbital/business/domain/permbus"
	"github.com/getorbital/orbital/business/domain/rolebus"
	"github.com/getorbital/orbital/business/domain/sectionbus"
	"github.com/getorbital/orbital/business/domain/tenantbus"
	"github.com/getorbital/orbital/business/domain/userbus"
	"github.com/getorbital/orbital/business/sdk/sqldb"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/getorbital/orbital/foundation/otel"
)

// ErrDone indicates a commit or rollback on a unit that already finished.
var ErrDone = errors.New("unit of work already finished")

// Config carries the dependencies a factory needs to begin units of work.
type Config struct {
	Log        *logger.Logger
	DB         sqldb.Beginner
	TenantBus  *tenantbus.Core
	UserBus    *userbus.Core
	RoleBus    *rolebus.Core
	PermBus    *permbus.Core
	SectionBus *sectionbus.Core
}

// Factory begins units of work sharing one set of base buses.
type Factory struct {
	cfg Config
}

// NewFactory constructs a factory for units of work.
func NewFactory(cfg Config) *Factory {
	return &Factory{
		cfg: cfg,
	}
}

// Begin starts a transaction and rebinds every bus to it under the specified
// scope. The caller owns the unit and must finish it with Commit or Close.
func (f *Factory) Begin(ctx context.Context, scope tenancy.Scope) (*UnitOfWork, error) {
	_, span := otel.AddSpan(ctx, "business.unitofwork.begin")
	defer span.End()

	tx, err := f.cfg.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}

	wtx, err := newCountingTx(tx)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("wrap tx: %w", err)
	}

	u := UnitOfWork{
		log:   f.cfg.Log,
		scope: scope,
		tx:    wtx,
	}

	if u.tenantBus, err = f.cfg.TenantBus.NewWithTx(wtx); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("bind tenantbus: %w", err)
	}

	if u.userBus, err = f.cfg.UserBus.NewWithTx(wtx); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("bind userbus: %w", err)
	}

	if u.roleBus, err = f.cfg.RoleBus.NewWithTx(wtx); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("bind rolebus: %w", err)
	}

	if u.permBus, err = f.cfg.PermBus.NewWithTx(wtx); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("bind permbus: %w", err)
	}

	if u.sectionBus, err = f.cfg.SectionBus.NewWithTx(wtx); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("bind sectionbus: %w", err)
	}

	return &u, nil
}

// UnitOfWork is one transaction with every bus bound to it. It is not safe
// for concurrent use.
type UnitOfWork struct {
	log        *logger.Logger
	scope      tenancy.Scope
	tx         *countingTx
	done       bool
	tenantBus  *tenantbus.Core
	userBus    *userbus.Core
	roleBus    *rolebus.Core
	permBus    *permbus.Core
	sectionBus *sectionbus.Core
}

// Scope returns the scope every bus in the unit operates under.
func (u *UnitOfWork) Scope() tenancy.Scope {
	return u.scope
}

// Tenants returns the tenant bus bound to the unit's transaction.
func (u *UnitOfWork) Tenants() *tenantbus.Core {
	return u.tenantBus
}

// Users returns the user bus bound to the unit's transaction.
func (u *UnitOfWork) Users() *userbus.Core {
	return u.userBus
}

// Roles returns the role bus bound to the unit's transaction.
func (u *UnitOfWork) Roles() *rolebus.Core {
	return u.roleBus
}

// Permissions returns the permission bus bound to the unit's transaction.
func (u *UnitOfWork) Permissions() *permbus.Core {
	return u.permBus
}

// Sections returns the section bus bound to the unit's transaction.
func (u *UnitOfWork) Sections() *sectionbus.Core {
	return u.sectionBus
}

// SaveChanges reports the number of rows affected by the unit so far. The
// writes have already executed on the transaction; this is the point where a
// caller checks how much work the unit performed before deciding to commit.
func (u *UnitOfWork) SaveChanges(ctx context.Context) (int, error) {
	_, span := otel.AddSpan(ctx, "business.unitofwork.saveChanges")
	defer span.End()

	if u.done {
		return 0, ErrDone
	}

	return int(u.tx.rows()), nil
}

// Commit makes the unit's writes visible. The unit is finished afterwards.
func (u *UnitOfWork) Commit() error {
	if u.done {
		return ErrDone
	}
	u.done = true

	if err := u.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// Rollback discards the unit's writes. The unit is finished afterwards.
func (u *UnitOfWork) Rollback() error {
	if u.done {
		return ErrDone
	}
	u.done = true

	if err := u.tx.Rollback(); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}

	return nil
}

// Close rolls the unit back unless it was committed. Safe to defer on every
// path.
func (u *UnitOfWork) Close() error {
	if u.done {
		return nil
	}

	return u.Rollback()
}
