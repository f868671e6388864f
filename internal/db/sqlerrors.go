package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// ErrorClass groups sqlite failures by how callers react to them.
type ErrorClass uint8

const (
	// ClassOther is any sqlite failure without a more specific class.
	ClassOther ErrorClass = iota

	// ClassUniqueViolation is an insert that hit an existing primary key
	// or unique index.
	ClassUniqueViolation

	// ClassBusy means another connection holds the write lock.
	ClassBusy

	// ClassLocked means a table is locked by the same connection.
	ClassLocked

	// ClassSchema means the query referenced a missing table, usually a
	// database that was never migrated.
	ClassSchema
)

// String returns a short name for the class.
func (c ErrorClass) String() string {
	switch c {
	case ClassUniqueViolation:
		return "unique violation"
	case ClassBusy:
		return "busy"
	case ClassLocked:
		return "locked"
	case ClassSchema:
		return "schema"
	default:
		return "sqlite"
	}
}

// SQLError is a classified sqlite driver error.
type SQLError struct {
	Class ErrorClass
	Err   error
}

// Error implements error.
func (e *SQLError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Class, e.Err)
}

// Unwrap returns the driver error.
func (e *SQLError) Unwrap() error {
	return e.Err
}

// Transient reports whether the same statement may succeed if retried.
func (e *SQLError) Transient() bool {
	return e.Class == ClassBusy || e.Class == ClassLocked
}

// MapSQLError wraps sqlite driver errors in a *SQLError. Anything else,
// including nil, is returned unchanged.
func MapSQLError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	return &SQLError{Class: classify(sqliteErr), Err: sqliteErr}
}

func classify(err sqlite3.Error) ErrorClass {
	switch err.Code {
	case sqlite3.ErrConstraint:
		switch err.ExtendedCode {
		case sqlite3.ErrConstraintUnique,
			sqlite3.ErrConstraintPrimaryKey:

			return ClassUniqueViolation
		}

	case sqlite3.ErrBusy:
		return ClassBusy

	case sqlite3.ErrLocked:
		return ClassLocked

	case sqlite3.ErrError:
		if strings.Contains(err.Error(), "no such table") {
			return ClassSchema
		}
	}

	return ClassOther
}

func hasClass(err error, class ErrorClass) bool {
	var sqlErr *SQLError
	return errors.As(err, &sqlErr) && sqlErr.Class == class
}

// IsUniqueConstraintViolation reports whether err is a mapped duplicate key
// error.
func IsUniqueConstraintViolation(err error) bool {
	return hasClass(err, ClassUniqueViolation)
}

// IsSchemaError reports whether err is a mapped missing-table error.
func IsSchemaError(err error) bool {
	return hasClass(err, ClassSchema)
}

// IsTransient reports whether err is a mapped busy or locked error.
func IsTransient(err error) bool {
	var sqlErr *SQLError
	return errors.As(err, &sqlErr) && sqlErr.Transient()
}
