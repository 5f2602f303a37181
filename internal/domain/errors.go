package domain

import "errors"

// Failure kinds surfaced by services. The HTTP layer maps each to a
// status code and machine-readable code; nothing here is swallowed.
var (
	ErrNotFound              = errors.New("resource not found")
	ErrForbidden             = errors.New("forbidden")
	ErrUnauthenticated       = errors.New("authentication required")
	ErrSessionExpired        = errors.New("session expired")
	ErrDuplicateRequest      = errors.New("viewing request already exists for this property")
	ErrOwnerUnresolvable     = errors.New("property owner could not be resolved")
	ErrAccountLocked         = errors.New("account locked due to repeated failed login attempts")
	ErrAccountSuspended      = errors.New("account suspended")
	ErrValidation            = errors.New("validation failed")
	ErrConflict              = errors.New("conflict")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
