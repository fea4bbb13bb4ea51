package password

import "errors"

// Public, stable errors for callers.
var (
	ErrPasswordBlank    = errors.New("password blank")
	ErrPasswordMismatch = errors.New("password confirmation mismatch")
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
)
