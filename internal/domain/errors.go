package domain

import "errors"

var (
	// ErrValidation marks input that fails domain validation.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks an operation rejected by current entity state.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized marks a request with a missing or wrong credential.
	ErrUnauthorized = errors.New("unauthorized")
)
