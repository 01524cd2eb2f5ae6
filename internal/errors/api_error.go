// Package errors defines the error envelope shared by services and handlers.
package errors

import "net/http"

// APIError is returned by services and rendered by handlers as
// {"error": {"code", "message", "details"}}.
type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func New(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// WithDetails returns e carrying details.
func (e *APIError) WithDetails(details interface{}) *APIError {
	e.Details = details
	return e
}

func Internal(message string) *APIError {
	if message == "" {
		message = "internal server error"
	}
	return New(http.StatusInternalServerError, "internal_error", message)
}

func BadRequest(code, message string) *APIError {
	return New(http.StatusBadRequest, code, message)
}

func Unauthorized(message string) *APIError {
	if message == "" {
		message = "unauthorized"
	}
	return New(http.StatusUnauthorized, "unauthorized", message)
}

func NotFound(code, message string) *APIError {
	return New(http.StatusNotFound, code, message)
}

func Conflict(code, message string, details interface{}) *APIError {
	return New(http.StatusConflict, code, message).WithDetails(details)
}

// Unavailable reports a service that is shutting down.
func Unavailable(code, message string) *APIError {
	return New(http.StatusServiceUnavailable, code, message)
}
