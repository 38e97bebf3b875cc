// Package postgres persists the matching pipeline in PostgreSQL. Uniqueness of evaluations
// and applications per (candidate, job) pair is enforced by table constraints.
package postgres

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	stderrors "errors"
	"net"

	"github.com/lib/pq"

	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/common/logger"
)

const uniqueViolation = "23505"

type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{db: db, logger: logger.Component(log, "postgres")}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// queryError classifies a driver error: unreachable database is fatal, anything else is a
// failed query for the item at hand.
func queryError(op string, err error) error {
	if isConnectionError(err) {
		return apperrors.NewDatabaseConnectionFailedError(err)
	}
	return apperrors.NewQueryExecutionFailedError(op, err)
}

func insertError(table string, err error) error {
	if isConnectionError(err) {
		return apperrors.NewDatabaseConnectionFailedError(err)
	}
	return apperrors.NewDatabaseInsertFailedError(table, err)
}

func isConnectionError(err error) bool {
	if stderrors.Is(err, driver.ErrBadConn) || stderrors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// jsonList marshals a slice for a JSONB column, writing [] for nil.
func jsonList[T any](values []T) ([]byte, error) {
	if values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(values)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
