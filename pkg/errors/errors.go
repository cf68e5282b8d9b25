// Package errors provides custom error types for the dietmatrix system.
// These errors enable programmatic error checking and carry enough
// context to report exactly which tables, columns, or identity keys
// violated a reconciliation invariant.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// As is an alias for the standard library errors.As.
var As = errors.As

// Is is an alias for the standard library errors.Is.
var Is = errors.Is

// Common sentinel errors for the dietmatrix system
var (
	// ErrSchemaMismatch indicates a source table is missing an expected column
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrDuplicateIdentity indicates duplicate identity keys survived resolution
	ErrDuplicateIdentity = errors.New("duplicate identity")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")
)

// SchemaMismatchError reports a source table missing an expected
// identity or metadata column. Always fatal; the run aborts.
type SchemaMismatchError struct {
	Table   string
	Missing []string
}

// Error implements the error interface
func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("table %s missing expected columns: %s", e.Table, strings.Join(e.Missing, ", "))
}

// Is implements errors.Is support
func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// NewSchemaMismatchError creates a new SchemaMismatchError
func NewSchemaMismatchError(table string, missing ...string) *SchemaMismatchError {
	return &SchemaMismatchError{Table: table, Missing: missing}
}

// DuplicateIdentityError reports identity keys that remained duplicated
// after duplicate resolution. This indicates donor selection failed,
// usually because no discriminator matched any row for the key.
type DuplicateIdentityError struct {
	Table string
	Keys  []string
}

// Error implements the error interface
func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("table %s has %d unresolved duplicate identity keys: %s",
		e.Table, len(e.Keys), strings.Join(e.Keys, ", "))
}

// Is implements errors.Is support
func (e *DuplicateIdentityError) Is(target error) bool {
	return target == ErrDuplicateIdentity
}

// NewDuplicateIdentityError creates a new DuplicateIdentityError
func NewDuplicateIdentityError(table string, keys []string) *DuplicateIdentityError {
	return &DuplicateIdentityError{Table: table, Keys: keys}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// IOError wraps a file read/write failure with the path involved
type IOError struct {
	Path string
	Op   string
	Err  error
}

// Error implements the error interface
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// WrapIO creates a new IOError
func WrapIO(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}
