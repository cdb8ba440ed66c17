package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType classifies a failure for callers and for the HTTP layer
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeInternal     ErrorType = "INTERNAL"
	// ErrorTypeExternal is a failure in a backing service such as the
	// document store, blob storage or a maps API
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

var httpStatus = map[ErrorType]int{
	ErrorTypeNotFound:     http.StatusNotFound,
	ErrorTypeValidation:   http.StatusBadRequest,
	ErrorTypeUnauthorized: http.StatusUnauthorized,
	ErrorTypeForbidden:    http.StatusForbidden,
	ErrorTypeInternal:     http.StatusInternalServerError,
	ErrorTypeExternal:     http.StatusBadGateway,
}

// AppError carries a type, a message safe to show the caller and an
// optional cause that is only ever logged.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Exposed reports whether Message may be sent to clients. Internal and
// upstream failures are replaced by a generic message.
func (e *AppError) Exposed() bool {
	return e.Type != ErrorTypeInternal && e.Type != ErrorTypeExternal
}

// TypeOf returns the type of the first AppError in err's chain, or
// ErrorTypeInternal when there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// HTTPStatus maps err onto a response status; untyped errors are 500
func HTTPStatus(err error) int {
	if status, ok := httpStatus[TypeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func IsNotFound(err error) bool {
	return err != nil && TypeOf(err) == ErrorTypeNotFound
}

func newError(t ErrorType, message string, cause error) *AppError {
	return &AppError{Type: t, Message: message, Err: cause}
}

func NewNotFoundError(message string) *AppError {
	return newError(ErrorTypeNotFound, message, nil)
}

func NewValidationError(message string) *AppError {
	return newError(ErrorTypeValidation, message, nil)
}

// NewUnauthorizedError is returned when an operation needs a principal and
// none was supplied
func NewUnauthorizedError(message string) *AppError {
	return newError(ErrorTypeUnauthorized, message, nil)
}

// NewForbiddenError is returned when the principal does not own the record
func NewForbiddenError(message string) *AppError {
	return newError(ErrorTypeForbidden, message, nil)
}

func NewInternalError(message string, err error) *AppError {
	return newError(ErrorTypeInternal, message, err)
}

func NewExternalError(message string, err error) *AppError {
	return newError(ErrorTypeExternal, message, err)
}
