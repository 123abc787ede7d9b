package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common conditions.
var (
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("duplicate entry")
	ErrDatabase   = errors.New("database error")
	ErrInvalidArg = errors.New("invalid argument")

	// ErrPathSkipped marks a path resolution that ended without a game:
	// the user (or auto-skip mode) chose to move on. Not a failure.
	ErrPathSkipped = errors.New("path skipped")
	// ErrPathExcluded marks a path the user excluded during resolution.
	// The path has been recorded and will never be offered again.
	ErrPathExcluded = errors.New("path excluded")
)

// CatalogError provides context for catalog-related errors.
type CatalogError struct {
	Op      string // Operation that failed (e.g., "add game")
	Subject string // Path or name if applicable
	Err     error  // Underlying error
}

func (e *CatalogError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s '%s': %v", e.Op, e.Subject, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

// WrapDBError converts a database error to a user-friendly error.
func WrapDBError(err error, op string) error {
	if err == nil {
		return nil
	}

	// Cancellation is not a database error; callers match on the
	// context sentinels to tell it apart from path failures.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &CatalogError{Op: op, Err: ErrNotFound}
	}

	// Check for constraint violations (SQLite specific patterns)
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") {
		return &CatalogError{Op: op, Err: fmt.Errorf("%w: entry already exists", ErrDuplicate)}
	}
	if strings.Contains(errStr, "FOREIGN KEY constraint failed") {
		return &CatalogError{Op: op, Err: fmt.Errorf("%w: referenced item does not exist", ErrDatabase)}
	}
	if strings.Contains(errStr, "no such table") {
		return &CatalogError{Op: op, Err: fmt.Errorf("%w: database not initialized", ErrDatabase)}
	}

	return &CatalogError{Op: op, Err: fmt.Errorf("%w: %v", ErrDatabase, err)}
}

// NotFoundError returns a user-friendly "not found" error.
func NotFoundError(itemType, name string) error {
	return &CatalogError{
		Op:      fmt.Sprintf("find %s", itemType),
		Subject: name,
		Err:     ErrNotFound,
	}
}
