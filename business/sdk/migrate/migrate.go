// Package migrate contains the database schema and seed data for the system.
// The DDL is kept portable between PostgreSQL (production) and SQLite
// (business-level tests).
package migrate

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/getorbital/orbital/business/sdk/sqldb"
	"github.com/jmoiron/sqlx"
)

var (
	//go:embed sql/schema.sql
	schemaDoc string

	//go:embed sql/seed.sql
	seedDoc string
)

// Migrate attempts to bring the database up to date with the schema defined
// in this package.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if err := sqldb.StatusCheck(ctx, db); err != nil {
		return fmt.Errorf("status check database: %w", err)
	}

	for _, stmt := range statements(schemaDoc) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec schema statement: %w", err)
		}
	}

	return nil
}

// Seed loads the global permission catalog. Running Seed more than once is
// a no-op for rows that already exist.
func Seed(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if errTx := tx.Rollback(); errTx != nil {
			if errTx.Error() == "sql: transaction has already been committed or rolled back" {
				return
			}
			err = errTx
		}
	}()

	for _, stmt := range statements(seedDoc) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec seed statement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// statements splits a sql document into individual statements. Drivers using
// prepared statements reject multi-statement execs.
func statements(doc string) []string {
	var stmts []string

	for _, stmt := range strings.Split(doc, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		stmts = append(stmts, stmt)
	}

	return stmts
}
