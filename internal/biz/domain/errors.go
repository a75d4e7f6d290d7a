package domain

import (
	"errors"
	"fmt"
)

// ErrUnsupportedWebhook marks a GREEN-API event type the bridge does not
// process. Callers acknowledge the webhook and drop it.
var ErrUnsupportedWebhook = errors.New("unsupported webhook type")

// ErrAgentIdentityMismatch marks a livechat webhook message that is not
// attributable to the sending agent (system messages, echoes of the bridge's
// own output). Such messages are silently skipped.
var ErrAgentIdentityMismatch = errors.New("message is not an agent message")

// ValidationError reports malformed or incomplete input.
type ValidationError struct {
	Message string
}

// NewValidationError formats a ValidationError.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string { return e.Message }

// AuthorizationError reports a failed identity or token check.
type AuthorizationError struct {
	Message string
}

// NewAuthorizationError formats an AuthorizationError.
func NewAuthorizationError(format string, args ...any) *AuthorizationError {
	return &AuthorizationError{Message: fmt.Sprintf(format, args...)}
}

func (e *AuthorizationError) Error() string { return e.Message }

// NotFoundError reports a missing workspace, user or instance.
type NotFoundError struct {
	Message string
}

// NewNotFoundError formats a NotFoundError.
func NewNotFoundError(format string, args ...any) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

func (e *NotFoundError) Error() string { return e.Message }

// IntegrationError reports a failed call to an external platform. Status and
// Body carry the upstream HTTP response when one was received.
type IntegrationError struct {
	Message string
	Status  int
	Body    string
}

func (e *IntegrationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}
