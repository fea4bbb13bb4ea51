package token

import "errors"

// Public, stable errors for callers.
var (
	ErrSecretMissing  = errors.New("session secret missing")
	ErrSecretTooShort = errors.New("session secret too short")
)
