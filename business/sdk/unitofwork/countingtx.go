package unitofwork

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/getorbital/orbital/business/sdk/sqldb"
	"github.com/jmoiron/sqlx"
)

// countingTx decorates a transaction so every successful exec adds its rows
// affected to a counter. It satisfies both sqldb.CommitRollbacker and
// sqlx.ExtContext, so the stores' NewWithTx rebinding sees it as a plain
// transaction.
type countingTx struct {
	tx    sqldb.CommitRollbacker
	ec    sqlx.ExtContext
	count atomic.Int64
}

func newCountingTx(tx sqldb.CommitRollbacker) (*countingTx, error) {
	ec, err := sqldb.GetExtContext(tx)
	if err != nil {
		return nil, err
	}

	return &countingTx{
		tx: tx,
		ec: ec,
	}, nil
}

func (c *countingTx) rows() int64 {
	return c.count.Load()
}

// Commit implements the sqldb.CommitRollbacker interface.
func (c *countingTx) Commit() error {
	return c.tx.Commit()
}

// Rollback implements the sqldb.CommitRollbacker interface.
func (c *countingTx) Rollback() error {
	return c.tx.Rollback()
}

// ExecContext implements the sqlx.ExecerContext interface and accumulates
// rows affected.
func (c *countingTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := c.ec.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	if n, err := res.RowsAffected(); err == nil {
		c.count.Add(n)
	}

	return res, nil
}

// QueryContext implements the sqlx.QueryerContext interface.
func (c *countingTx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.ec.QueryContext(ctx, query, args...)
}

// QueryxContext implements the sqlx.QueryerContext interface.
func (c *countingTx) QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	return c.ec.QueryxContext(ctx, query, args...)
}

// QueryRowxContext implements the sqlx.QueryerContext interface.
func (c *countingTx) QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row {
	return c.ec.QueryRowxContext(ctx, query, args...)
}

// DriverName implements the sqlx binder interface.
func (c *countingTx) DriverName() string {
	return c.ec.DriverName()
}

// Rebind implements the sqlx binder interface.
func (c *countingTx) Rebind(query string) string {
	return c.ec.Rebind(query)
}

// BindNamed implements the sqlx binder interface.
func (c *countingTx) BindNamed(query string, arg any) (string, []any, error) {
	return c.ec.BindNamed(query, arg)
}
