// Package errors defines the gateway error taxonomy and its HTTP mapping.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error class in the gateway taxonomy.
type Code string

const (
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeBadRequest      Code = "BAD_REQUEST"
	CodeDependency      Code = "DEPENDENCY"
	CodeFatal           Code = "FATAL"
)

// genericDependencyMessage is what callers see for upstream failures. The
// verbatim upstream text stays on the wrapped error and is logged, never
// returned to the caller.
const genericDependencyMessage = "upstream request failed"

// ServiceError carries a taxonomy code, a caller-visible message, and the
// HTTP status the handler boundary converts it to.
type ServiceError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Unauthenticated signals a missing or invalid bearer token.
func Unauthenticated(message string) *ServiceError {
	return &ServiceError{Code: CodeUnauthenticated, Message: message, HTTPStatus: http.StatusUnauthorized}
}

// Forbidden signals an authenticated principal without the required tenant scope.
func Forbidden(message string) *ServiceError {
	return &ServiceError{Code: CodeForbidden, Message: message, HTTPStatus: http.StatusForbidden}
}

// BadRequest signals missing or malformed caller input.
func BadRequest(message string) *ServiceError {
	return &ServiceError{Code: CodeBadRequest, Message: message, HTTPStatus: http.StatusBadRequest}
}

// Dependency signals a failed upstream or store call. The wrapped error keeps
// the upstream message for internal logging; the caller-visible message is
// generic.
func Dependency(err error) *ServiceError {
	return &ServiceError{Code: CodeDependency, Message: genericDependencyMessage, HTTPStatus: http.StatusInternalServerError, Err: err}
}

// Fatal signals absent required server configuration. Handlers check this
// before any other work.
func Fatal(message string) *ServiceError {
	return &ServiceError{Code: CodeFatal, Message: message, HTTPStatus: http.StatusInternalServerError}
}

// FromError recovers a *ServiceError from anywhere in err's chain. Errors
// outside the taxonomy are treated as dependency failures.
func FromError(err error) *ServiceError {
	if err == nil {
		return nil
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return Dependency(err)
}
