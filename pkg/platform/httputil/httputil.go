// Package httputil maps domain errors to HTTP responses and centralizes JSON
// encoding so handlers stay thin.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	derrors "fairgate/pkg/domain-errors"
)

// errorBody is the wire shape for all error responses.
type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// statusFor maps domain error codes to HTTP status codes.
func statusFor(code derrors.Code) int {
	switch code {
	case derrors.CodeInvalidInput, derrors.CodeBadRequest, derrors.CodeInsufficientData:
		return http.StatusBadRequest
	case derrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case derrors.CodeNotFound:
		return http.StatusNotFound
	case derrors.CodeConflict, derrors.CodeInvariantViolation:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a domain error as JSON. Internal and validation errors
// omit the description so defects never leak implementation detail.
func WriteError(w http.ResponseWriter, err error) {
	code := derrors.CodeOf(err)
	body := errorBody{Error: string(code)}
	if code != derrors.CodeInternal && code != derrors.CodeValidation {
		var de *derrors.Error
		if ok := asDomain(err, &de); ok {
			body.ErrorDescription = de.Message
		}
	}
	WriteJSON(w, statusFor(code), body)
}

func asDomain(err error, target **derrors.Error) bool {
	for err != nil {
		if de, ok := err.(*derrors.Error); ok {
			*target = de
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Decode parses a JSON request body into T, logging and answering the client
// on failure. The bool result tells the handler whether to continue.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "malformed request body",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, derrors.New(derrors.CodeBadRequest, "malformed JSON body"))
		var zero T
		return zero, false
	}
	return req, true
}

// Validatable is implemented by request types that validate and normalize
// themselves after decoding.
type Validatable interface {
	Validate() error
}

// DecodeAndPrepare decodes a JSON body into *T and runs its validation,
// answering the client on any failure.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (PT, bool) {
	req, ok := Decode[T](w, r, logger, ctx, requestID)
	if !ok {
		return nil, false
	}
	prepared := PT(&req)
	if err := prepared.Validate(); err != nil {
		logger.WarnContext(ctx, "invalid request body",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, err)
		return nil, false
	}
	return prepared, true
}
