package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources. Ownership
	// failures on singular resources surface as ErrNotFound too, so a
	// caller cannot distinguish another user's row from an absent one.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is used for named destination resources the caller
	// does not own (cross-folder move/copy targets).
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict is used for uniqueness violations.
	ErrConflict = errors.New("conflict")
)
