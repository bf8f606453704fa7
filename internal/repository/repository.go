package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors shared by the repositories. Services translate them into
// domain errors.
var (
	// ErrDuplicateRow maps a unique-constraint violation. The constraint is
	// the sole concurrency guard for natural keys; there is no in-process
	// locking, so two racing inserts resolve at the database.
	ErrDuplicateRow = errors.New("duplicate row")
	// ErrNoRow signals that an update or delete matched nothing.
	ErrNoRow = errors.New("no matching row")
)

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}
