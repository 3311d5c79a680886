package errs

import (
	"errors"
	"fmt"
)

// ErrNotFound marks an entity that does not exist (or is not visible to the
// caller). Handlers map it to 404.
var ErrNotFound = errors.New("not found")

// ValidationError is an expected business-rule violation (bad payload,
// insufficient stock, invalid state transition). Handlers map it to 400.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a named field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// GatewayError wraps a payment-gateway failure. The gateway's own message is
// surfaced verbatim; handlers map it to 502.
type GatewayError struct {
	Message string
}

func (e *GatewayError) Error() string {
	return "payment gateway: " + e.Message
}

// NewGatewayError creates a gateway error carrying the processor's message.
func NewGatewayError(message string) *GatewayError {
	return &GatewayError{Message: message}
}
