package identity

import (
	"errors"
	"fmt"
	"strings"
)

// OpError is a typed operation error with a stable Op + Kind contract for callers/tests.
// - Kind MUST be one of the sentinel kinds when applicable (ErrInvalidInput, ErrNotFound, ...).
// - Msg may include human-readable context; do not include secrets.
type OpError struct {
	Op   string
	Kind error
	Msg  string
}

func (e OpError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
}

func (e OpError) Unwrap() error { return e.Kind }

// FieldError is one failed rule for one input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (f FieldError) String() string { return f.Field + " " + f.Reason }

// ValidationError reports every failed field rule of a create/update call.
// Nothing is persisted when it is returned.
type ValidationError struct {
	Op     string
	Fields []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: %v", e.Op, ErrInvalidInput)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrInvalidInput, strings.Join(parts, "; "))
}

func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// Has reports whether the error carries the given field/reason pair.
func (e ValidationError) Has(field, reason string) bool {
	for _, f := range e.Fields {
		if f.Field == field && f.Reason == reason {
			return true
		}
	}
	return false
}

// ConflictError reports a uniqueness/constraint conflict for a specific logical field.
// Field should be a stable logical name: "email", ...
type ConflictError struct {
	Op    string
	Field string
}

func (e ConflictError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Op, ErrConflict)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrConflict, e.Field)
}

func (e ConflictError) Unwrap() error { return ErrConflict }

// NotFoundError reports a missing referenced resource (e.g., FK violation) or missing row.
type NotFoundError struct {
	Op       string
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("%s: %v", e.Op, ErrNotFound)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrNotFound, e.Resource)
}

func (e NotFoundError) Unwrap() error { return ErrNotFound }

// FieldErrorsOf extracts the field-level failures carried by err.
// A ConflictError raised by the datastore constraint maps to the same
// "has already been taken" pair the pre-insert check produces.
func FieldErrorsOf(err error) ([]FieldError, bool) {
	var ve ValidationError
	if errors.As(err, &ve) {
		return ve.Fields, true
	}
	var ce ConflictError
	if errors.As(err, &ce) {
		field := ce.Field
		if field == "" {
			field = "base"
		}
		return []FieldError{{Field: field, Reason: ReasonTaken}}, true
	}
	return nil, false
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce ConflictError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err represents ErrNotFound (including NotFoundError).
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsInvalidInput reports whether err represents ErrInvalidInput.
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsForbidden reports whether err represents ErrForbidden.
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }

// IsRejected reports whether err is a caller-correctable rejection of a
// create/update (validation failure or uniqueness conflict).
func IsRejected(err error) bool { return IsInvalidInput(err) || IsConflict(err) }
