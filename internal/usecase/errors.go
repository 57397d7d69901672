package usecase

import "errors"

// Sentinel errors returned by the services. Callers match them with
// errors.Is; the HTTP layer maps each one to a status code.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")
	// ErrRejected marks a well-formed submission that failed eligibility.
	ErrRejected = errors.New("submission rejected")
	// ErrConflict marks a write that lost a race for the same natural key.
	ErrConflict              = errors.New("conflicting write")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
