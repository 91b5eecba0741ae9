package utils

import (
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/collegelover/college-lover-api/models"
)

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindAuth       ErrorKind = "auth"
	KindForbidden  ErrorKind = "forbidden"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindPolicy     ErrorKind = "policy"
	KindInternal   ErrorKind = "internal"
)

var kindStatus = map[ErrorKind]int{
	KindValidation: http.StatusBadRequest,
	KindAuth:       http.StatusUnauthorized,
	KindForbidden:  http.StatusForbidden,
	KindNotFound:   http.StatusNotFound,
	KindConflict:   http.StatusBadRequest,
	KindPolicy:     http.StatusBadRequest,
	KindInternal:   http.StatusInternalServerError,
}

// AppError is a failure that already knows how it should reach the client.
type AppError struct {
	Kind    ErrorKind
	Message string
	Fields  models.ValidationErrors
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Format prints the cause with its stack trace for %+v.
func (e *AppError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') && e.Err != nil {
			fmt.Fprintf(s, "%s: %+v", e.Message, e.Err)
			return
		}
		fallthrough
	case 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

func (e *AppError) Status() int {
	if s, ok := kindStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func newAppError(kind ErrorKind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewValidationError(format string, args ...interface{}) *AppError {
	return newAppError(KindValidation, format, args...)
}

// ValidationFailed turns an entity check result into a client error.
func ValidationFailed(fields models.ValidationErrors) *AppError {
	return &AppError{Kind: KindValidation, Message: fields.Error(), Fields: fields}
}

func NewAuthError(format string, args ...interface{}) *AppError {
	return newAppError(KindAuth, format, args...)
}

func NewForbiddenError(format string, args ...interface{}) *AppError {
	return newAppError(KindForbidden, format, args...)
}

func NewNotFoundError(format string, args ...interface{}) *AppError {
	return newAppError(KindNotFound, format, args...)
}

func NewConflictError(format string, args ...interface{}) *AppError {
	return newAppError(KindConflict, format, args...)
}

func NewPolicyError(format string, args ...interface{}) *AppError {
	return newAppError(KindPolicy, format, args...)
}

// Internal wraps an unexpected failure, recording a stack trace for
// non-production responses.
func Internal(err error, msg string) *AppError {
	return &AppError{Kind: KindInternal, Message: msg, Err: errors.WithStack(err)}
}

// KindOf reports the kind of err, or KindInternal when err is not an AppError.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
