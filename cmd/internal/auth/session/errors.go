package session

import "errors"

var (
	// ErrInvalidToken is returned when a remember token fails signature or claim validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidFlash is returned when the flash cookie is malformed or its MAC does not match.
	ErrInvalidFlash = errors.New("invalid flash")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
