package services

import "errors"

// Sentinel errors let the HTTP layer map service failures to status codes.
// Services wrap them with context: fmt.Errorf("%w: ...", ErrValidation).
var (
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConcurrentUpdate  = errors.New("record was modified concurrently")
	ErrUpstream          = errors.New("upstream failure")
)
