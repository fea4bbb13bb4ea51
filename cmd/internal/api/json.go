package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"sampleapp/cmd/identity"
)

type apiError struct {
	Code    string                `json:"code"`
	Message string                `json:"message"`
	Fields  []identity.FieldError `json:"fields,omitempty"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: apiError{Code: code, Message: msg}})
}

// writeInvalid reports field-level failures with 422, as the sign-up form would re-render them.
func writeInvalid(w http.ResponseWriter, fields []identity.FieldError) {
	msg := "invalid input"
	if len(fields) == 1 {
		msg = fields[0].String()
	} else if len(fields) > 1 {
		msg = "the form contains errors"
	}
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: apiError{
		Code:    "invalid_input",
		Message: msg,
		Fields:  fields,
	}})
}

// WriteUnavailable is the session.ErrorHandler used when identity resolution hits a datastore failure.
func WriteUnavailable(w http.ResponseWriter, _ *http.Request, _ error) {
	writeError(w, http.StatusServiceUnavailable, "unavailable", "service unavailable")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer func() { _ = r.Body.Close() }()

	body := http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// Ensure there is no extra data after the first JSON value.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after JSON object")
	}
	return nil
}
