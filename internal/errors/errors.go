// Package errors defines the service error taxonomy shared across fleetd.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code identifies an error category for API clients.
type Code string

const (
	CodeNotFound         Code = "NOT_FOUND"
	CodeForbidden        Code = "FORBIDDEN"
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeValidation       Code = "VALIDATION"
	CodeInvalidCode      Code = "INVALID_CODE"
	CodeInvalidOperation Code = "INVALID_OPERATION"
	CodeConflict         Code = "CONFLICT"
	CodeRateLimited      Code = "RATE_LIMITED"
	CodeNotConfigured    Code = "NOT_CONFIGURED"
	CodeInternal         Code = "INTERNAL"
	CodeInvalidToken     Code = "INVALID_TOKEN"
)

// ServiceError carries an error category, client-safe message and HTTP status.
type ServiceError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// WithDetails attaches a key/value pair for diagnostics.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(code Code, message string, status int, err error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// NotFound indicates a missing vessel, user, membership or request type.
func NotFound(message string) *ServiceError {
	return newError(CodeNotFound, message, http.StatusNotFound, nil)
}

// Forbidden indicates the caller lacks access to the target resource.
func Forbidden(message string) *ServiceError {
	return newError(CodeForbidden, message, http.StatusForbidden, nil)
}

// Unauthorized indicates missing or failed authentication.
func Unauthorized(message string) *ServiceError {
	return newError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// Validation indicates malformed caller input.
func Validation(message string) *ServiceError {
	return newError(CodeValidation, message, http.StatusBadRequest, nil)
}

// InvalidCode indicates a missing, expired or already consumed code.
func InvalidCode(message string) *ServiceError {
	return newError(CodeInvalidCode, message, http.StatusBadRequest, nil)
}

// InvalidOperation indicates a well-formed but disallowed operation.
func InvalidOperation(message string) *ServiceError {
	return newError(CodeInvalidOperation, message, http.StatusBadRequest, nil)
}

// Conflict indicates a uniqueness violation.
func Conflict(message string) *ServiceError {
	return newError(CodeConflict, message, http.StatusConflict, nil)
}

// NotConfigured indicates an optional collaborator is not wired.
func NotConfigured(message string) *ServiceError {
	return newError(CodeNotConfigured, message, http.StatusNotImplemented, nil)
}

// RateLimitExceeded indicates the caller exceeded the request budget.
func RateLimitExceeded(limit int, window string) *ServiceError {
	e := newError(CodeRateLimited, "rate limit exceeded", http.StatusTooManyRequests, nil)
	return e.WithDetails("limit", limit).WithDetails("window", window)
}

// Internal wraps an unexpected failure; the wrapped error is logged, never
// returned to clients.
func Internal(message string, err error) *ServiceError {
	return newError(CodeInternal, message, http.StatusInternalServerError, err)
}

// InvalidToken indicates a malformed or rejected session token.
func InvalidToken(err error) *ServiceError {
	return newError(CodeInvalidToken, "invalid token", http.StatusUnauthorized, err)
}

// GetServiceError extracts a ServiceError from the chain, or nil.
func GetServiceError(err error) *ServiceError {
	var svcErr *ServiceError
	if stderrors.As(err, &svcErr) {
		return svcErr
	}
	return nil
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	svcErr := GetServiceError(err)
	return svcErr != nil && svcErr.Code == code
}
