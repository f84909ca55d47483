package domain

import "errors"

var (
	// ErrInvalidCredential is returned when a presented portal token or password does not match.
	ErrInvalidCredential = errors.New("invalid credentials")
	// ErrNotConfigured is returned when the secret needed to verify a credential is missing.
	ErrNotConfigured = errors.New("authentication not configured")
	// ErrMissingLoginToken is returned when the exchange endpoint is called without a token.
	ErrMissingLoginToken = errors.New("login token is required")
	// ErrInvalidLoginToken covers expired, tampered, replayed or wrong-kind login tokens.
	ErrInvalidLoginToken = errors.New("invalid or expired login token")

	ErrNotFound          = errors.New("submission not found")
	ErrForbidden         = errors.New("access denied")
	ErrNotEditable       = errors.New("only pending submissions can be modified")
	ErrInvalidTransition = errors.New("status transition not allowed")
)

// ValidationError describes a malformed request.
type ValidationError struct {
	Message string
	Fields  map[string]any
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError.
func NewValidationError(message string, fields map[string]any) error {
	return &ValidationError{Message: message, Fields: fields}
}
