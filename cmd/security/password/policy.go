package password

import (
	"strings"
	"unicode/utf8"
)

// Validate checks a single password against the length policy. It does not mutate input.
func (c Config) Validate(password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrPasswordBlank
	}

	// Count characters (runes), not bytes.
	n := utf8.RuneCountInString(password)
	if n < c.Policy.MinLength {
		return ErrPasswordTooShort
	}
	if n > c.Policy.MaxLength {
		return ErrPasswordTooLong
	}
	return nil
}

// Problems returns every rule that password and confirmation break, in a
// stable order: blank, mismatch, too short, too long. A nil result means the
// pair is acceptable.
func (c Config) Problems(password, confirmation string) []error {
	var out []error

	if strings.TrimSpace(password) == "" {
		out = append(out, ErrPasswordBlank)
	}
	if password != confirmation {
		out = append(out, ErrPasswordMismatch)
	}

	n := utf8.RuneCountInString(password)
	switch {
	case n < c.Policy.MinLength:
		out = append(out, ErrPasswordTooShort)
	case n > c.Policy.MaxLength:
		out = append(out, ErrPasswordTooLong)
	}

	return out
}
