package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the outcomes every layer needs to distinguish.
// Wrap with fmt.Errorf("...: %w", err) and test with errors.Is.
var (
	// ErrNotFound means a resource id did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized means the caller lacks the required permission.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInviteAlreadyUsed means the invite code was redeemed before.
	ErrInviteAlreadyUsed = errors.New("invite already used")

	// ErrInviteExpired means the invite's expiry timestamp has passed.
	ErrInviteExpired = errors.New("invite expired")
)

// ValidationError reports malformed input on a specific field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
