package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrPersistenceFailure means a finished lobby could not be stored and
	// was parked for reconciliation.
	ErrPersistenceFailure = errors.New("persistence failure")
)
