// Package errors provides standardized error types and helpers for the
// MageArenaFlagEditor codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the error kinds used across the codebase
var (
	// ErrUnsupported indicates structurally valid input describing a format
	// variant this codec does not implement
	ErrUnsupported = errors.New("unsupported")
	// ErrIllegalParameter indicates malformed or internally inconsistent input
	ErrIllegalParameter = errors.New("illegal parameter")
	// ErrAccess indicates an attempt to access a necessary resource failed
	ErrAccess = errors.New("access failure")
	// ErrValue indicates an unexpected value was encountered in stored data
	ErrValue = errors.New("unexpected value")
)

// UnsupportedError represents a valid but unimplemented format variant
type UnsupportedError struct {
	Feature string // Feature or format variant that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// Is keeps the error kind visible to errors.Is even when an underlying
// cause is attached.
func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

// IllegalParameterError represents malformed or inconsistent input with context
type IllegalParameterError struct {
	Field   string // Field or argument that was malformed
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *IllegalParameterError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("illegal parameter %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("illegal parameter: %s", e.Message)
}

func (e *IllegalParameterError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrIllegalParameter
}

func (e *IllegalParameterError) Is(target error) bool {
	return target == ErrIllegalParameter
}

// AccessError represents a failure to reach a resource (file, registry key)
type AccessError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Resource  string // File path or registry location involved
	Err       error  // Underlying error
}

func (e *AccessError) Error() string {
	if e.Resource != "" {
		if e.Err != nil {
			return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Resource, e.Err)
		}
		return fmt.Sprintf("failed to %s %s", e.Operation, e.Resource)
	}
	if e.Err != nil {
		return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("failed to %s", e.Operation)
}

func (e *AccessError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrAccess
}

func (e *AccessError) Is(target error) bool {
	return target == ErrAccess
}

// ValueError represents unexpected content in otherwise reachable stored data
type ValueError struct {
	Subject string // What held the value (e.g., "flag data", "cell 12")
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ValueError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("unexpected value for %s: %s", e.Subject, e.Message)
	}
	return fmt.Sprintf("unexpected value: %s", e.Message)
}

func (e *ValueError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrValue
}

func (e *ValueError) Is(target error) bool {
	return target == ErrValue
}

// Helper functions for creating common errors

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// NewIllegal creates an IllegalParameterError
func NewIllegal(field, message string) *IllegalParameterError {
	return &IllegalParameterError{
		Field:   field,
		Message: message,
	}
}

// NewAccess creates an AccessError
func NewAccess(operation, resource string, err error) *AccessError {
	return &AccessError{
		Operation: operation,
		Resource:  resource,
		Err:       err,
	}
}

// NewValue creates a ValueError
func NewValue(subject, message string) *ValueError {
	return &ValueError{
		Subject: subject,
		Message: message,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
