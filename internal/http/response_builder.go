// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON and
// download responses with consistent headers and error bodies.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"saa/internal/services"
)

const contentTypeJSON = "application/json; charset=utf-8"

// ResponseBuilder provides a fluent API for building responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       []byte
	err        error
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON encodes v as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.headers["Content-Type"] = contentTypeJSON
	b.body, b.err = json.Marshal(v)
	return b
}

// Body sets a raw body with its content type.
func (b *ResponseBuilder) Body(contentType string, content []byte) *ResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.body = content
	return b
}

// Attachment marks the body as a download with the given file name.
func (b *ResponseBuilder) Attachment(filename string) *ResponseBuilder {
	b.headers["Content-Disposition"] = mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	if b.err != nil {
		slog.Error("Response encoding failed", "error", b.err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if len(b.body) > 0 {
		w.Header().Set("Content-Length", strconv.Itoa(len(b.body)))
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

const internalErrorMessage = "erro interno, tente novamente"

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// ConflictError creates a 409 Conflict error response.
func ConflictError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusConflict, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// ServiceError maps a service error onto a response. Advisory export errors
// carry their own user-facing message.
func ServiceError(err error) *ResponseBuilder {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return NotFoundError("registro não encontrado")
	case errors.Is(err, services.ErrInvalidInput):
		return UnprocessableEntityError(err.Error())
	case errors.Is(err, services.ErrNoPayments), errors.Is(err, services.ErrNoControls):
		return ConflictError(err.Error())
	default:
		return InternalServerError(internalErrorMessage)
	}
}
