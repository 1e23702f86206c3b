// Package http provides the JSON API server.
//
// This file implements a small builder for JSON responses and the mapping
// from domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"propcrm/internal/core"
	applog "propcrm/internal/log"
	"propcrm/internal/services"
	"propcrm/internal/store"
)

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
	raw        []byte
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets a value to be encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	b.raw = nil
	return b
}

// Text sets a plain-text body.
func (b *ResponseBuilder) Text(contentType, s string) *ResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.raw = []byte(s)
	b.body = nil
	return b
}

// Write sends the built response to w.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.raw != nil {
		w.WriteHeader(b.statusCode)
		_, _ = w.Write(b.raw)
		return
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

var validationErrors = []error{
	core.ErrEmptyName,
	core.ErrInvalidType,
	core.ErrInvalidStatus,
	core.ErrInvalidFurnish,
	core.ErrInvalidPriority,
	core.ErrInvalidDate,
}

// ErrorFor maps a service error to its response. Range and month key
// errors are malformed queries (400); listing rule violations are 422.
func ErrorFor(err error) *ResponseBuilder {
	var de *services.DeleteError
	switch {
	case errors.As(err, &de):
		return deleteErrorResponse(de)
	case errors.Is(err, store.ErrNotFound):
		return NotFoundError("listing not found")
	case errors.Is(err, core.ErrInvalidRange), errors.Is(err, core.ErrInvalidMonthKey):
		return BadRequestError(err.Error())
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return UnprocessableEntityError(err.Error())
		}
	}
	return InternalServerError(err.Error())
}

// deleteErrorResponse keeps the three failure classes of a cascading delete
// apart: missing listing, object storage, database.
func deleteErrorResponse(de *services.DeleteError) *ResponseBuilder {
	status := http.StatusInternalServerError
	switch {
	case de.Stage == services.StageLookup && errors.Is(de.Err, store.ErrNotFound):
		status = http.StatusNotFound
	case de.Stage == services.StageStorage:
		status = http.StatusBadGateway
	}
	return NewResponse().Status(status).JSON(errorBody{Error: de.Err.Error(), Stage: de.Stage})
}

// writeError logs server-side failures and writes the mapped response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	b := ErrorFor(err)
	if b.statusCode >= http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, b.statusCode,
			applog.FieldError, err)
	} else {
		slog.DebugContext(r.Context(), "Request rejected",
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, b.statusCode,
			applog.FieldError, err)
	}
	b.Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewResponse().Status(status).JSON(v).Write(w)
}
