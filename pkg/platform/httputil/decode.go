package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "caremonitor/pkg/domain-errors"
	"caremonitor/pkg/requestcontext"
)

// Validatable is implemented by request types that support validation.
type Validatable interface {
	Validate() error
}

// Normalizable is implemented by request types that fill in defaults.
type Normalizable interface {
	Normalize()
}

// Sanitizable is implemented by request types that trim or clean input.
type Sanitizable interface {
	Sanitize()
}

// DecodeJSON reads a JSON body into a new T. An empty body yields the zero
// value. Unknown fields and oversized bodies are rejected. On failure the
// error response is already written and ok is false.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	var req T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(&req)
	if err == nil || errors.Is(err, io.EOF) {
		return &req, true
	}

	logger.WarnContext(r.Context(), "failed to decode request body",
		"error", err,
		"request_id", requestcontext.RequestID(r.Context()),
	)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		WriteError(w, dErrors.New(dErrors.CodeTooLarge, "request body too large"))
		return nil, false
	}
	WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
	return nil, false
}

// PrepareRequest runs Sanitize, Normalize and Validate in that order for
// whichever of them req implements.
func PrepareRequest(req any) error {
	if s, ok := req.(Sanitizable); ok {
		s.Sanitize()
	}
	if n, ok := req.(Normalizable); ok {
		n.Normalize()
	}
	if v, ok := req.(Validatable); ok {
		return v.Validate()
	}
	return nil
}

// DecodeAndPrepare decodes the body and prepares it with PrepareRequest.
// Validation errors that are not domain errors are reported as validation_error.
//
//	req, ok := httputil.DecodeAndPrepare[fetchRequest](w, r, h.logger)
//	if !ok {
//	    return
//	}
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	req, ok := DecodeJSON[T](w, r, logger)
	if !ok {
		return nil, false
	}

	err := PrepareRequest(req)
	if err == nil {
		return req, true
	}
	logger.WarnContext(r.Context(), "invalid request",
		"error", err,
		"request_id", requestcontext.RequestID(r.Context()),
	)
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		err = dErrors.New(dErrors.CodeValidation, err.Error())
	}
	WriteError(w, err)
	return nil, false
}
