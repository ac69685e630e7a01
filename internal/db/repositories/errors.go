// Package repositories implements the data access layer (repository pattern)
// for the license back office. Each repository type encapsulates all database
// queries for a domain entity. Handlers never issue SQL directly — all
// database access goes through this layer, which makes query logic testable
// in isolation and prevents accidental cross-domain data access.
package repositories

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgreSQL error codes the handlers care about. Uniqueness races that slip
// past handler pre-checks, and deletes blocked by referencing rows, both
// surface here and are mapped to conflict responses.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// ErrUniqueViolation indicates an insert or update collided with a unique
// constraint (login, email, server name, fingerprint, license unique_id).
var ErrUniqueViolation = errors.New("unique constraint violation")

// ErrForeignKeyViolation indicates a write referenced a missing row or a
// delete was blocked by rows still referencing the target.
var ErrForeignKeyViolation = errors.New("foreign key constraint violation")

// ConstraintError wraps one of the package sentinels together with the
// constraint and table reported by the driver, so handlers can name the
// blocking relationship in a conflict response instead of emitting a
// generic message. Unwrap returns the sentinel, so errors.Is checks
// against ErrUniqueViolation / ErrForeignKeyViolation keep working.
type ConstraintError struct {
	Sentinel   error
	Constraint string
	Table      string
}

func (e *ConstraintError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%s: %s", e.Sentinel.Error(), e.Constraint)
	}
	return e.Sentinel.Error()
}

func (e *ConstraintError) Unwrap() error { return e.Sentinel }

// translateError maps driver-level pq errors onto the package sentinel
// errors so callers can match with errors.Is without importing lib/pq.
// The violated constraint and its table travel along in a ConstraintError.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return &ConstraintError{Sentinel: ErrUniqueViolation, Constraint: pqErr.Constraint, Table: pqErr.Table}
		case pgForeignKeyViolation:
			return &ConstraintError{Sentinel: ErrForeignKeyViolation, Constraint: pqErr.Constraint, Table: pqErr.Table}
		}
	}
	return err
}

// IsUniqueViolation reports whether err is a unique-constraint violation.
func IsUniqueViolation(err error) bool {
	return errors.Is(translateError(err), ErrUniqueViolation)
}

// IsForeignKeyViolation reports whether err is a referential-integrity violation.
func IsForeignKeyViolation(err error) bool {
	return errors.Is(translateError(err), ErrForeignKeyViolation)
}
