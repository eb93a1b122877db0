package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrConflict              = errors.New("conflict")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrStaleToken            = errors.New("token invalid or expired")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
