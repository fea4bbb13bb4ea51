package identity

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"sampleapp/cmd/security/password"
)

// MaxNameLength is the maximum number of characters in a user name.
const MaxNameLength = 50

// Field reasons, worded the way the sign-up form shows them.
const (
	ReasonBlank    = "can't be blank"
	ReasonInvalid  = "is invalid"
	ReasonTaken    = "has already been taken"
	ReasonMismatch = "doesn't match confirmation"
)

var emailRe = regexp.MustCompile(`(?i)\A[\w+\-.]+@[a-z\d\-.]+\.[a-z]+\z`)

// ValidEmail reports whether s has the local@domain.tld shape accepted for accounts.
func ValidEmail(s string) bool { return emailRe.MatchString(s) }

// Validator checks user input. The zero value is not usable; use NewValidator.
type Validator struct {
	pw password.Config
}

// NewValidator constructs a Validator with the given password policy.
func NewValidator(pw password.Config) Validator {
	return Validator{pw: pw}
}

// DefaultValidator uses the default password policy (6 to 40 characters).
func DefaultValidator() Validator { return NewValidator(password.DefaultConfig()) }

// Check returns every failing rule for the given fields, in field order
// name, email, password. Uniqueness is not checked here; stores add it.
func (v Validator) Check(name, email, pw, confirmation string) []FieldError {
	var out []FieldError

	name = NormalizeName(name)
	if name == "" {
		out = append(out, FieldError{Field: "name", Reason: ReasonBlank})
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		out = append(out, FieldError{Field: "name", Reason: tooLong(MaxNameLength)})
	}

	email = strings.TrimSpace(email)
	if email == "" {
		out = append(out, FieldError{Field: "email", Reason: ReasonBlank})
	}
	if !ValidEmail(email) {
		out = append(out, FieldError{Field: "email", Reason: ReasonInvalid})
	}

	for _, p := range v.pw.Problems(pw, confirmation) {
		out = append(out, FieldError{Field: "password", Reason: v.passwordReason(p)})
	}

	return out
}

func (v Validator) passwordReason(err error) string {
	switch {
	case errors.Is(err, password.ErrPasswordBlank):
		return ReasonBlank
	case errors.Is(err, password.ErrPasswordMismatch):
		return ReasonMismatch
	case errors.Is(err, password.ErrPasswordTooShort):
		return tooShort(v.pw.Policy.MinLength)
	case errors.Is(err, password.ErrPasswordTooLong):
		return tooLong(v.pw.Policy.MaxLength)
	default:
		return ReasonInvalid
	}
}

func tooLong(n int) string  { return fmt.Sprintf("is too long (maximum is %d characters)", n) }
func tooShort(n int) string { return fmt.Sprintf("is too short (minimum is %d characters)", n) }

func hasField(fields []FieldError, field string) bool {
	for _, f := range fields {
		if f.Field == field {
			return true
		}
	}
	return false
}
