package apperr

import "errors"

// Error kinds shared by services and handlers. Services wrap these with
// fmt.Errorf("...: %w", ...) and handlers match them with errors.Is to pick
// an HTTP status.
var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrUnauthorized    = errors.New("not authorized")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrValidation      = errors.New("validation failed")
	ErrUpstream        = errors.New("upstream failure")
)
