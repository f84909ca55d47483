package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/gift-portal/internal/domain"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts service and framework errors to DomainError.
// Credential failures collapse to one generic 401 so callers cannot tell
// a wrong token from a missing server secret.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		return withCause(NewValidationError(validation.Message, validation.Fields), err)
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredential), errors.Is(err, domain.ErrNotConfigured):
		return withCause(NewUnauthorized("invalid credentials"), err)
	case errors.Is(err, domain.ErrInvalidLoginToken):
		return withCause(NewUnauthorized(domain.ErrInvalidLoginToken.Error()), err)
	case errors.Is(err, domain.ErrMissingLoginToken):
		return withCause(NewValidationError(domain.ErrMissingLoginToken.Error(), nil), err)
	case errors.Is(err, domain.ErrForbidden):
		return withCause(NewForbidden(domain.ErrForbidden.Error()), err)
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, pgx.ErrNoRows):
		return withCause(NewNotFound("submission", nil), err)
	case errors.Is(err, domain.ErrNotEditable):
		return withCause(NewConflict(domain.ErrNotEditable.Error(), nil), err)
	case errors.Is(err, domain.ErrInvalidTransition):
		return withCause(NewConflict(domain.ErrInvalidTransition.Error(), nil), err)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &DomainError{
			Code:       httpCode(fiberErr.Code),
			Message:    fiberErr.Message,
			HTTPStatus: fiberErr.Code,
		}
	}

	return NewInternalError(err).(*DomainError)
}

func withCause(err error, cause error) *DomainError {
	de := err.(*DomainError)
	de.Err = cause
	return de
}

func httpCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "VALIDATION_FAILED"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusRequestTimeout:
		return "TIMEOUT"
	}
	if status >= http.StatusInternalServerError {
		return "INTERNAL_ERROR"
	}
	return "REQUEST_FAILED"
}
