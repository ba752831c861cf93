// Package apperr defines the typed HTTP error used across handlers and
// middleware, and the one function that turns any error into the JSON error
// envelope.
package apperr

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Error codes carried in the envelope.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeServerError  = "SERVER_ERROR"
)

// Error is an HTTP-aware error. Message is safe to show to clients; Err is
// the internal cause and is only ever logged.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func BadRequest(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Code: CodeForbidden, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Status: http.StatusConflict, Code: CodeConflict, Message: msg}
}

// Internal wraps an unexpected failure. The client only sees a generic message.
func Internal(err error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    CodeServerError,
		Message: "internal server error",
		Err:     err,
	}
}

type envelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// From converts any error into an *Error. Errors that are not already typed
// become 500s.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// Write logs err and writes it as {"success":false,"error":{code,message}}.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	e := From(err)

	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", e.Status),
		slog.String("code", e.Code),
		slog.String("message", e.Message),
	}
	if e.Status >= http.StatusInternalServerError {
		if e.Err != nil {
			attrs = append(attrs, slog.String("cause", e.Err.Error()))
		}
		attrs = append(attrs, slog.String("stack", string(debug.Stack())))
		slog.ErrorContext(r.Context(), "request failed", attrs...)
	} else {
		slog.InfoContext(r.Context(), "request rejected", attrs...)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	if encErr := json.NewEncoder(w).Encode(envelope{
		Error: errorBody{Code: e.Code, Message: e.Message},
	}); encErr != nil {
		slog.Error("failed to encode error response", slog.String("error", encErr.Error()))
	}
}
