package repositories

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres error classes we map to sentinel errors.
const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
	pqCheckViolation      = "23514"
)

// pqErrorCode returns the SQLSTATE of a driver error, or "" for anything else.
func pqErrorCode(err error) (pq.ErrorCode, string) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return "", ""
	}
	return pqErr.Code, pqErr.Constraint
}
