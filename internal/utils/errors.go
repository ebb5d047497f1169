package utils

import (
	"errors"
	"fmt"
)

// ValidationError represents an error occurring during request validation.
type ValidationError struct {
	Message string
}

// Error returns the error message string.
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new ValidationError with a specific message.
//
// Parameters:
//   - message: The validation error message.
//
// Returns:
//   - An error interface wrapping the ValidationError.
func NewValidationError(message string) error {
	return &ValidationError{
		Message: message,
	}
}

// NewValidationErrorf creates a new ValidationError with a formatted message.
//
// Parameters:
//   - format: The format string.
//   - args: Arguments for the format string.
//
// Returns:
//   - An error interface wrapping the ValidationError.
func NewValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorKind classifies structural failures raised by the pricing pipeline.
type ErrorKind string

const (
	KindInsufficientData       ErrorKind = "insufficient_data"
	KindLengthMismatch         ErrorKind = "length_mismatch"
	KindEmptyInput             ErrorKind = "empty_input"
	KindUnsupportedMarketplace ErrorKind = "unsupported_marketplace"
)

// PricingError carries a taxonomy kind and a human-readable message.
// Two PricingErrors match under errors.Is when their kinds are equal.
type PricingError struct {
	Kind    ErrorKind
	Message string
}

// Error returns the error message string.
func (e *PricingError) Error() string {
	return e.Message
}

// Is reports whether target is a PricingError of the same kind.
func (e *PricingError) Is(target error) bool {
	t, ok := target.(*PricingError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrInsufficientData       = &PricingError{Kind: KindInsufficientData, Message: "insufficient data"}
	ErrLengthMismatch         = &PricingError{Kind: KindLengthMismatch, Message: "length mismatch"}
	ErrEmptyInput             = &PricingError{Kind: KindEmptyInput, Message: "empty input"}
	ErrUnsupportedMarketplace = &PricingError{Kind: KindUnsupportedMarketplace, Message: "unsupported marketplace"}
)

// NewInsufficientDataError reports that a strategy needs more history points.
func NewInsufficientDataError(model string, required, got int) error {
	return &PricingError{
		Kind:    KindInsufficientData,
		Message: fmt.Sprintf("insufficient data for %s: need at least %d points, got %d", model, required, got),
	}
}

// NewLengthMismatchError reports actual/predicted series of different lengths.
func NewLengthMismatchError(actual, predicted int) error {
	return &PricingError{
		Kind:    KindLengthMismatch,
		Message: fmt.Sprintf("series lengths must match: actual=%d predicted=%d", actual, predicted),
	}
}

// NewEmptyInputError reports an empty history or dates sequence.
func NewEmptyInputError(message string) error {
	return &PricingError{
		Kind:    KindEmptyInput,
		Message: message,
	}
}

// NewUnsupportedMarketplaceError reports a price source that is not configured.
func NewUnsupportedMarketplaceError(marketplace string) error {
	return &PricingError{
		Kind:    KindUnsupportedMarketplace,
		Message: fmt.Sprintf("unsupported marketplace: %s", marketplace),
	}
}

// KindOf returns the taxonomy kind of err, or "" when err is not a PricingError.
func KindOf(err error) ErrorKind {
	var pe *PricingError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
