package errors

import (
	stderrors "errors"
	"fmt"
	"reflect"
)

// AppError is the structured error type raised by the container.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// --- Common Error Constructors ---

// MalformedCallSite reports a call site that cannot be lowered or evaluated.
func MalformedCallSite(serviceType reflect.Type, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeMalformedCallSite,
		Message: fmt.Sprintf("malformed call site for %s: %s", typeName(serviceType), reason),
		Details: map[string]any{"service_type": typeName(serviceType)},
	}
}

// TypeMismatch reports a value of type got flowing into a slot of type want.
func TypeMismatch(want, got reflect.Type) *AppError {
	return &AppError{
		Code:    ErrCodeTypeMismatch,
		Message: fmt.Sprintf("%s is not assignable to %s", typeName(got), typeName(want)),
		Details: map[string]any{"want": typeName(want), "got": typeName(got)},
	}
}

// ScopeDisposed reports use of a scope after Close.
func ScopeDisposed(scopeID string) *AppError {
	return &AppError{
		Code:    ErrCodeScopeDisposed,
		Message: "scope has been disposed",
		Details: map[string]any{"scope_id": scopeID},
	}
}

// ResolutionPanic converts a recovered panic value into an error.
func ResolutionPanic(serviceType reflect.Type, recovered any) *AppError {
	e := &AppError{
		Code:    ErrCodeResolutionPanic,
		Message: fmt.Sprintf("panic while resolving %s: %v", typeName(serviceType), recovered),
		Details: map[string]any{"service_type": typeName(serviceType)},
	}
	if err, ok := recovered.(error); ok {
		e.Cause = err
	}
	return e
}

// InvalidConfig reports a configuration that failed validation.
func InvalidConfig(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidConfig, Message: message}
}

// Internal creates a new AppError for an unexpected internal failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected internal error occurred", Cause: cause,
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err wraps an AppError carrying code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// Wrap returns err as an AppError, wrapping foreign errors as internal ones.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
