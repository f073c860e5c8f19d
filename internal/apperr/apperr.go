// Package apperr defines the sentinel error kinds shared by services and
// handlers. Services wrap these with fmt.Errorf("...: %w", ...) so callers can
// match the kind with errors.Is while keeping the human-readable detail.
package apperr

import "errors"

var (
	// ErrInvalidInput marks malformed or missing caller-supplied data
	// (unknown letter type, missing required field, empty rejection reason).
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a reference to a letter or user that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks an operation the actor's role does not permit.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState marks an operation not permitted in the entity's
	// current status (double numbering, deleting a non-pending letter).
	ErrInvalidState = errors.New("invalid state")

	// ErrConflict marks a letter-number uniqueness violation.
	ErrConflict = errors.New("conflict")

	// ErrInternal marks store or transaction failures.
	ErrInternal = errors.New("internal error")
)
