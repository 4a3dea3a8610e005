package util

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrConfigInvalid   = errors.New("invalid configuration")
	ErrUpstreamUnavail = errors.New("upstream unavailable")
	ErrCircuitOpen     = errors.New("circuit breaker open")
	ErrHandlerFailed   = errors.New("response handler failed")
)

// ConfigError represents a configuration or registration error.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error at %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ConfigError) Is(target error) bool {
	if target == ErrConfigInvalid {
		return true
	}
	_, ok := target.(*ConfigError)
	return ok || errors.Is(e.Cause, target)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError with a cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// IsConfigError reports whether err is, or wraps, a ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// ValidationError represents a validation failure.
type ValidationError struct {
	Fields  map[string]string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s (fields: %v)", e.Message, e.Fields)
}

// Is checks if the error matches the target.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message, Fields: make(map[string]string)}
}

// AddField adds a field error.
func (e *ValidationError) AddField(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

// ForwardingError represents a failure to reach the upstream for one request.
type ForwardingError struct {
	Server  int
	Target  string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ForwardingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("forwarding to server %d (%s) failed: %s: %v", e.Server, e.Target, e.Message, e.Cause)
	}
	return fmt.Sprintf("forwarding to server %d (%s) failed: %s", e.Server, e.Target, e.Message)
}

// Unwrap returns the underlying error.
func (e *ForwardingError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ForwardingError) Is(target error) bool {
	if target == ErrUpstreamUnavail {
		return true
	}
	_, ok := target.(*ForwardingError)
	return ok || errors.Is(e.Cause, target)
}

// NewForwardingError creates a new ForwardingError.
func NewForwardingError(server int, target, message string, cause error) *ForwardingError {
	return &ForwardingError{Server: server, Target: target, Message: message, Cause: cause}
}

// HandlerError wraps a failure returned by a user response or redirect hook.
type HandlerError struct {
	Context string
	Hook    string
	Cause   error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s hook for %s failed: %v", e.Hook, e.Context, e.Cause)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *HandlerError) Is(target error) bool {
	if target == ErrHandlerFailed {
		return true
	}
	_, ok := target.(*HandlerError)
	return ok || errors.Is(e.Cause, target)
}

// NewHandlerError creates a new HandlerError.
func NewHandlerError(context, hook string, cause error) *HandlerError {
	return &HandlerError{Context: context, Hook: hook, Cause: cause}
}

// CircuitOpenError represents a circuit breaker open error.
type CircuitOpenError struct {
	Name  string
	State string
}

// Error implements the error interface.
func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker %s is %s", e.Name, e.State)
}

// Is checks if the error matches the target.
func (e *CircuitOpenError) Is(target error) bool {
	if target == ErrCircuitOpen {
		return true
	}
	_, ok := target.(*CircuitOpenError)
	return ok
}

// NewCircuitOpenError creates a new CircuitOpenError.
func NewCircuitOpenError(name, state string) *CircuitOpenError {
	return &CircuitOpenError{Name: name, State: state}
}
