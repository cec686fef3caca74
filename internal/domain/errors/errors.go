// Package errors defines the application error taxonomy and its HTTP mapping.
package errors

import (
	"net/http"

	"github.com/pkg/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.details == "" {
		return e.message
	}

	return e.message + ": " + e.details
}

// Is matches on the error code so that copies made by WithDetails still match the sentinel.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return t.errorCode == e.errorCode
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// Wrap attaches cause below the sentinel so both errors.Is(err, sentinel) and the cause chain survive.
func (e *BaseError) Wrap(cause error, details string) error {
	return &causedError{BaseError: e.WithDetails(details), cause: cause}
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

type causedError struct {
	*BaseError
	cause error
}

func (e *causedError) Error() string {
	if e.cause == nil {
		return e.BaseError.Error()
	}

	return e.BaseError.Error() + ": " + e.cause.Error()
}

func (e *causedError) Unwrap() error {
	return e.cause
}

// Approval flow errors.
var (
	ErrUnauthenticated = NewBaseError(
		http.StatusUnauthorized,
		"UNAUTHENTICATED",
		"missing or invalid credentials",
		"",
	)

	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"administrator access required",
		"",
	)

	ErrInvalidBody = NewBaseError(
		http.StatusBadRequest,
		"INVALID_BODY",
		"invalid request body",
		"",
	)

	ErrMissingContact = NewBaseError(
		http.StatusBadRequest,
		"MISSING_CONTACT",
		"business has no responsible email",
		"",
	)

	ErrBusinessNotFound = NewBaseError(
		http.StatusNotFound,
		"BUSINESS_NOT_FOUND",
		"business not found",
		"",
	)

	ErrIdentityProvisionFailed = NewBaseError(
		http.StatusBadGateway,
		"IDENTITY_PROVISION_FAILED",
		"could not provision the partner login",
		"",
	)

	ErrProfileProvisionFailed = NewBaseError(
		http.StatusInternalServerError,
		"PROFILE_PROVISION_FAILED",
		"could not create the partner profile",
		"",
	)

	ErrPartnershipLinkFailed = NewBaseError(
		http.StatusInternalServerError,
		"PARTNERSHIP_LINK_FAILED",
		"could not link the partner to the business",
		"",
	)

	ErrApprovalPersistFailed = NewBaseError(
		http.StatusInternalServerError,
		"APPROVAL_PERSIST_FAILED",
		"could not save the approval",
		"",
	)

	// ErrNotificationFailed never reaches the caller; it is logged only.
	ErrNotificationFailed = NewBaseError(
		http.StatusInternalServerError,
		"NOTIFICATION_FAILED",
		"welcome email could not be sent",
		"",
	)

	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"input validation failed",
		"",
	)

	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"internal server error",
		"",
	)
)

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// Unwrap exposes the driver error.
func (e *DatabaseExecuteError) Unwrap() error {
	return e.err
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "database execution failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}
