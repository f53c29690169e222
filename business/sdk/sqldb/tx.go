package sqldb

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CommitRollbacker represents the ability to commit or rollback a
// transaction.
type CommitRollbacker interface {
	Commit() error
	Rollback() error
}

// Beginner represents the ability to begin a transaction.
type Beginner interface {
	Begin() (CommitRollbacker, error)
}

// =============================================================================

// DBBeginner implements the Beginner interface over a sqlx DB.
type DBBeginner struct {
	sqlxDB *sqlx.DB
}

// NewBeginner constructs a value that implements the beginner interface.
func NewBeginner(sqlxDB *sqlx.DB) *DBBeginner {
	return &DBBeginner{
		sqlxDB: sqlxDB,
	}
}

// Begin implements the Beginner interface and returns a concrete value that
// can be used to commit or rollback a transaction.
func (db *DBBeginner) Begin() (CommitRollbacker, error) {
	return db.sqlxDB.Beginx()
}

// GetExtContext is a helper function that extracts the sqlx value
// from the domain transactor interface for transactional use.
func GetExtContext(tx CommitRollbacker) (sqlx.ExtContext, error) {
	ec, ok := tx.(sqlx.ExtContext)
	if !ok {
		return nil, fmt.Errorf("Transactor(%T) not of a type *sqlx.Tx", tx)
	}

	return ec, nil
}
