package apperrors

import (
	"errors"
	"fmt"
)

// Generic errors shared by every layer
var (
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("invalid token")
	ErrTokenNotFound = errors.New("token not found")
	ErrInvalidFormat = errors.New("invalid token format")

	ErrPermissionDenied = errors.New("permission denied")

	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Scheduling errors. Infeasible sections are never errors; they are part of a run result.
var (
	// ErrInvalidTerm is a validation failure.
	ErrInvalidTerm = fmt.Errorf("%w: invalid semester or year", ErrValidationFailed)
	// ErrScheduleRunInProgress is returned when another commit or clear holds the term.
	ErrScheduleRunInProgress = errors.New("a schedule run for this term is already in progress")
	// ErrScheduleCommitFailed means nothing was written and the caller may retry.
	ErrScheduleCommitFailed = errors.New("failed to commit schedule")
	ErrRunCanceled          = errors.New("schedule run canceled")
	// ErrRunTimedOut means the snapshot could not even be loaded within the run time limit.
	ErrRunTimedOut = errors.New("schedule run timed out")
)

// Is reports whether err matches any of the targets
func Is(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// CustomError carries a user-facing message and details on top of a sentinel
type CustomError struct {
	Err       error
	Message   string
	StatusMsg string
	Code      string
	Details   map[string]interface{}
}

func (e *CustomError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "unknown error"
	}
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{Err: err, Message: message}
}

// NewResourceNotFoundError creates a not found error with a message
func NewResourceNotFoundError(message string) error {
	return NewCustomError(ErrResourceNotFound, message)
}

// NewValidationError creates a validation error that names the offending field
func NewValidationError(field, message string) error {
	return NewCustomError(ErrValidationFailed, message).WithDetails(map[string]interface{}{"field": field})
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}
