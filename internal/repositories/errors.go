package repositories

import (
	"database/sql"
	"errors"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError is returned for unexpected database errors.
	// It can be used to wrap more specific driver errors.
	ErrDatabaseError = errors.New("database error")
)

// SQLExecutor defines an interface that can be satisfied by *sql.DB or *sql.Tx.
// This allows repository methods to be used within transactions or with a
// direct DB connection.
type SQLExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

// Tx is a transaction handle passed through the service layer. *sql.Tx
// satisfies it; tests substitute an in-memory fake.
type Tx interface {
	SQLExecutor
	Commit() error
	Rollback() error
}

// TxBeginner starts transactions. The service layer owns transaction
// boundaries; repositories only ever see an SQLExecutor.
type TxBeginner interface {
	BeginTx() (Tx, error)
}

type sqlTxBeginner struct {
	db *sql.DB
}

// NewTxBeginner wraps a *sql.DB so its transactions can be handed out
// behind the Tx interface.
func NewTxBeginner(db *sql.DB) TxBeginner {
	return &sqlTxBeginner{db: db}
}

func (b *sqlTxBeginner) BeginTx() (Tx, error) {
	return b.db.Begin()
}
