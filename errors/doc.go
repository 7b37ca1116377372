// Package errors provides the structured error type used across resolvekit.
//
// Errors raised by the container itself carry an ErrorCode so callers can
// branch on them with HasCode. Errors returned by user constructors and
// factories are never wrapped in an AppError; they reach the caller as-is.
package errors
