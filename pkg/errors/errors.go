package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Repositories return these bare; services wrap them or
// replace them with an AppError carrying a client-facing message.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternal           = errors.New("internal error")
)

// kind ties a sentinel to its wire code, status and default message.
type kind struct {
	sentinel error
	code     string
	status   int
	message  string
}

// Duplicates map to 400 rather than 409; clients of this API treat them as
// a bad request.
var kinds = []kind{
	{ErrNotFound, "NOT_FOUND", http.StatusNotFound, "resource not found"},
	{ErrAlreadyExists, "ALREADY_EXISTS", http.StatusBadRequest, "resource already exists"},
	{ErrInvalidInput, "INVALID_INPUT", http.StatusBadRequest, "invalid input"},
	{ErrInvalidCredentials, "INVALID_CREDENTIALS", http.StatusBadRequest, "invalid email or password"},
	{ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized, "authentication required"},
	{ErrForbidden, "FORBIDDEN", http.StatusForbidden, "access denied"},
	{ErrInternal, "INTERNAL_ERROR", http.StatusInternalServerError, "an internal error occurred"},
}

func kindOf(sentinel error) kind {
	for _, k := range kinds {
		if k.sentinel == sentinel {
			return k
		}
	}
	return kinds[len(kinds)-1]
}

// AppError is an error with a stable code and HTTP status that is safe to
// show to clients. Err holds the cause and is never serialized.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(sentinel error, message string) *AppError {
	k := kindOf(sentinel)
	return &AppError{Code: k.code, Message: message, Status: k.status, Err: sentinel}
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return newAppError(ErrNotFound, fmt.Sprintf("%s with id %s not found", resource, id))
}

// AlreadyExists reports a uniqueness violation on field.
func AlreadyExists(resource, field, value string) *AppError {
	return newAppError(ErrAlreadyExists, fmt.Sprintf("%s with %s %q already exists", resource, field, value))
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return newAppError(ErrInvalidInput, message)
}

// InvalidCredentials is the one error returned for any failed login.
func InvalidCredentials() *AppError {
	return newAppError(ErrInvalidCredentials, kindOf(ErrInvalidCredentials).message)
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return newAppError(ErrUnauthorized, message)
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return newAppError(ErrForbidden, message)
}

// Internal creates a 500 error whose cause stays server-side.
func Internal(err error) *AppError {
	k := kindOf(ErrInternal)
	return &AppError{Code: k.code, Message: k.message, Status: k.status, Err: err}
}

// FromError converts err into an AppError. An AppError anywhere in the chain
// is returned as is; a wrapped sentinel gets its kind's default message
// (invalid input keeps the full error text); anything else is Internal.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, k := range kinds {
		if !errors.Is(err, k.sentinel) {
			continue
		}
		message := k.message
		if k.sentinel == ErrInvalidInput {
			message = err.Error()
		}
		return &AppError{Code: k.code, Message: message, Status: k.status, Err: err}
	}
	return Internal(err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	return FromError(err).Status
}
