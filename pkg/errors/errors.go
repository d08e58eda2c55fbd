package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected indicates that the cache backend is not connected to NATS
	ErrNotConnected = errors.New("not connected to NATS")

	// ErrCacheUnavailable indicates that the cache backend could not be reached
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrInvalidKey indicates that the provided cache key is empty or malformed
	ErrInvalidKey = errors.New("invalid cache key")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrBucketNotFound indicates that the key-value bucket was not found
	ErrBucketNotFound = errors.New("key-value bucket not found")
)

// Error represents a structured SDK error
type Error struct {
	// Code is a machine-readable error code
	Code string

	// Message is a human-readable error message
	Message string

	// Err is the underlying error, if any
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new SDK error
func NewError(code, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsNotConnected checks if an error is a not connected error
func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}
