package store

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a uniqueness
// constraint (duplicate email, duplicate event triple, duplicate
// registration). The constraint is the authority: even if two requests
// race past an application-level check, exactly one insert wins and
// the loser surfaces here.
var ErrConflict = errors.New("conflict")

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// translate maps Postgres error codes onto the store sentinels so
// callers can branch with errors.Is.
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return ErrConflict
		case pqForeignKeyViolation:
			return ErrNotFound
		}
	}
	return err
}
