// Package sqldb provides support for access the database.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/getorbital/orbital/foundation/logger"
	"github.com/getorbital/orbital/foundation/otel"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // Calls init function.
	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// lib/pq errorCodeNames
// https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	uniqueViolation = "23505"
	undefinedTable  = "42P01"
)

// Set of error variables for CRUD operations.
var (
	ErrDBNotFound     = sql.ErrNoRows
	ErrUndefinedTable = errors.New("undefined table")
)

// ErrDBDuplicatedEntry is returned when a write violates a unique constraint.
// Column carries the constraint or column name reported by the database so
// stores can map it to a domain validation error.
type ErrDBDuplicatedEntry struct {
	Column string
}

// Error implements the error interface.
func (e ErrDBDuplicatedEntry) Error() string {
	return fmt.Sprintf("duplicated entry: column[%s]", e.Column)
}

// Config is the required properties to use the database.
type Config struct {
	User         string
	Password     string
	Host         string
	Name         string
	Schema       string
	MaxIdleConns int
	MaxOpenConns int
	DisableTLS   bool
}

// Open knows how to open a database connection based on the configuration.
func Open(cfg Config) (*sqlx.DB, error) {
	sslMode := "require"
	if cfg.DisableTLS {
		sslMode = "disable"
	}

	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")
	if cfg.Schema != "" {
		q.Set("search_path", cfg.Schema)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host,
		Path:     cfg.Name,
		RawQuery: q.Encode(),
	}

	db, err := sqlx.Open("pgx", u.String())
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	return db, nil
}

// StatusCheck returns nil if it can successfully talk to the database. It
// returns a non-nil error otherwise.
func StatusCheck(ctx context.Context, db *sqlx.DB) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Second)
		defer cancel()
	}

	var pingError error
	for attempts := 1; ; attempts++ {
		pingError = db.Ping()
		if pingError == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	// Run a simple query to determine connectivity. Running this query forces
	// a round trip through the database.
	const q = `SELECT true`
	var tmp bool
	return db.QueryRowContext(ctx, q).Scan(&tmp)
}

// NamedExecContext is a helper function to execute a CUD operation with
// logging and tracing.
func NamedExecContext(ctx context.Context, log *logger.Logger, db sqlx.ExtContext, query string, data any) error {
	_, err := namedExecContext(ctx, log, db, query, data)
	return err
}

// NamedExecContextCount is a helper function to execute a CUD operation with
// logging and tracing that also returns the number of rows affected.
func NamedExecContextCount(ctx context.Context, log *logger.Logger, db sqlx.ExtContext, query string, data any) (int64, error) {
	return namedExecContext(ctx, log, db, query, data)
}

func namedExecContext(ctx context.Context, log *logger.Logger, db sqlx.ExtContext, query string, data any) (int64, error) {
	q := queryString(query, data)

	log.Infoc(ctx, 6, "database.NamedExecContext", "query", q)

	ctx, span := otel.AddSpan(ctx, "business.sqldb.exec")
	span.SetAttributes(attrQuery.String(q))
	defer span.End()

	res, err := sqlx.NamedExecContext(ctx, db, query, data)
	if err != nil {
		var pgxerr *pgconn.PgError
		if errors.As(err, &pgxerr) {
			switch pgxerr.Code {
			case undefinedTable:
				return 0, ErrUndefinedTable
			case uniqueViolation:
				return 0, ErrDBDuplicatedEntry{Column: pgxerr.ConstraintName}
			}
		}

		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) {
			switch sqliteErr.ExtendedCode {
			case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
				return 0, ErrDBDuplicatedEntry{Column: sqliteConstraintColumns(sqliteErr)}
			}
		}

		return 0, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}

	return rows, nil
}

// sqliteConstraintColumns extracts the violated column list from a sqlite
// unique violation. sqlite reports no constraint name, only a message of the
// form "UNIQUE constraint failed: table.col1, table.col2".
func sqliteConstraintColumns(err sqlite3.Error) string {
	msg := err.Error()

	if _, cols, found := strings.Cut(msg, "constraint failed: "); found {
		return cols
	}

	return msg
}

// NamedQueryStruct is a helper function for executing queries that return a
// single value to be unmarshalled into a struct type where field replacement
// is necessary.
func NamedQueryStruct(ctx context.Context, log *logger.Logger, db sqlx.ExtContext, query string, data any, dest any) error {
	q := queryString(query, data)

	log.Infoc(ctx, 6, "database.NamedQueryStruct", "query", q)

	ctx, span := otel.AddSpan(ctx, "business.sqldb.query")
	span.SetAttributes(attrQuery.String(q))
	defer span.End()

	rows, err := sqlx.NamedQueryContext(ctx, db, query, data)
	if err != nil {
		var pgxerr *pgconn.PgError
		if errors.As(err, &pgxerr) && pgxerr.Code == undefinedTable {
			return ErrUndefinedTable
		}
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		return ErrDBNotFound
	}

	if err := rows.StructScan(dest); err != nil {
		return err
	}

	return nil
}

// NamedQuerySlice is a helper function for executing queries that return a
// collection of data to be unmarshalled into a slice where field replacement
// is necessary.
func NamedQuerySlice[T any](ctx context.Context, log *logger.Logger, db sqlx.ExtContext, query string, data any, dest *[]T) error {
	q := queryString(query, data)

	log.Infoc(ctx, 6, "database.NamedQuerySlice", "query", q)

	ctx, span := otel.AddSpan(ctx, "business.sqldb.query")
	span.SetAttributes(attrQuery.String(q))
	defer span.End()

	rows, err := sqlx.NamedQueryContext(ctx, db, query, data)
	if err != nil {
		var pgxerr *pgconn.PgError
		if errors.As(err, &pgxerr) && pgxerr.Code == undefinedTable {
			return ErrUndefinedTable
		}
		return err
	}
	defer rows.Close()

	var slice []T
	for rows.Next() {
		v := new(T)
		if err := rows.StructScan(v); err != nil {
			return err
		}
		slice = append(slice, *v)
	}
	*dest = slice

	return nil
}
