package database

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// Recoverable store conditions. Repositories translate driver errors into
// these so callers never inspect pq internals.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateContact  = errors.New("contact number already registered")
	ErrDuplicateName     = errors.New("a listing with this name already exists here")
	ErrDuplicateLocation = errors.New("a listing already exists at this location")
	ErrSuperAdminExists  = errors.New("super admin already exists")
)

const uniqueViolationCode = "23505"

// isUniqueViolation reports whether err is any Postgres unique violation
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode
}

// translateUniqueViolation maps a Postgres unique-constraint violation onto
// the matching application error, using the constraint name set in schema.go.
// The unique indexes are the race-safe backstop behind the friendlier
// pre-checks in the service layer: a check-then-act race still surfaces as
// the same Conflict error.
func translateUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolationCode {
		return nil
	}
	switch {
	case strings.Contains(pqErr.Constraint, "email"):
		return ErrDuplicateEmail
	case strings.Contains(pqErr.Constraint, "contact"):
		return ErrDuplicateContact
	case strings.Contains(pqErr.Constraint, "super_admin"):
		return ErrSuperAdminExists
	case strings.Contains(pqErr.Constraint, "coords"):
		return ErrDuplicateLocation
	case strings.Contains(pqErr.Constraint, "name"):
		return ErrDuplicateName
	}
	return nil
}
