package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Call-site errors
const (
	// ErrCodeMalformedCallSite indicates a call-site tree that cannot be compiled or interpreted.
	ErrCodeMalformedCallSite ErrorCode = "MALFORMED_CALL_SITE"
	// ErrCodeTypeMismatch indicates a produced value is not assignable to its consumer.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
)

// Resolution errors
const (
	// ErrCodeScopeDisposed indicates the scope was closed before or during resolution.
	ErrCodeScopeDisposed ErrorCode = "SCOPE_DISPOSED"
	// ErrCodeResolutionPanic indicates a constructor or factory panicked.
	ErrCodeResolutionPanic ErrorCode = "RESOLUTION_PANIC"
)

// Setup errors
const (
	// ErrCodeInvalidConfig indicates the configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)
