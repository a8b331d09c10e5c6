package domain

import "errors"

// Sentinel errors shared across the application. The HTTP adapter maps
// them onto status codes with errors.Is.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateEmail     = errors.New("user already exists")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("invalid or expired token")
	ErrNotFound           = errors.New("not found")
)
