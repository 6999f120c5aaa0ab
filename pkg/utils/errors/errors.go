package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of an error
type ErrorType uint

const (
	// ErrorTypeUnknown represents an unknown error
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeInvalidArgument represents rejected caller input
	ErrorTypeInvalidArgument
	// ErrorTypeNotFound represents a missing or empty historical series
	ErrorTypeNotFound
	// ErrorTypeInsufficientData represents a series too short to derive returns from
	ErrorTypeInsufficientData
	// ErrorTypeDegenerateData represents non-finite prices or zero-volatility assets
	ErrorTypeDegenerateData
	// ErrorTypeNonConvergence represents an optimizer that failed to converge
	ErrorTypeNonConvergence
	// ErrorTypeTimeout represents an exhausted wall-clock budget
	ErrorTypeTimeout
	// ErrorTypeInternal represents an internal error
	ErrorTypeInternal
)

var typeNames = map[ErrorType]string{
	ErrorTypeUnknown:          "unknown",
	ErrorTypeInvalidArgument:  "invalid_argument",
	ErrorTypeNotFound:         "not_found",
	ErrorTypeInsufficientData: "insufficient_data",
	ErrorTypeDegenerateData:   "degenerate_data",
	ErrorTypeNonConvergence:   "non_convergence",
	ErrorTypeTimeout:          "timeout",
	ErrorTypeInternal:         "internal",
}

// String returns the wire name of the error type
func (t ErrorType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error returns the error message
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new error with the given message
func New(message string) error {
	return &AppError{
		Type:    ErrorTypeUnknown,
		Message: message,
	}
}

// Newf creates a new error with the given format and arguments
func Newf(format string, args ...interface{}) error {
	return &AppError{
		Type:    ErrorTypeUnknown,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with a message, keeping the type of the wrapped error
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Type:    TypeOf(err),
		Message: message,
		Err:     err,
	}
}

// Wrapf wraps an error with a formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithType returns err re-tagged with errType
func WithType(err error, errType ErrorType) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Type:    errType,
		Message: err.Error(),
		Err:     errors.Unwrap(err),
	}
}

// TypeOf returns the type of the first AppError in err's chain
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err carries the given type
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

// Is reports whether err or any of the errors in its chain is target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// InvalidArgument creates a new InvalidArgument error
func InvalidArgument(message string) error {
	return &AppError{
		Type:    ErrorTypeInvalidArgument,
		Message: message,
	}
}

// InvalidArgumentf creates a new InvalidArgument error with a formatted message
func InvalidArgumentf(format string, args ...interface{}) error {
	return InvalidArgument(fmt.Sprintf(format, args...))
}

// NotFound creates a new NotFound error
func NotFound(message string) error {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// InsufficientData creates a new InsufficientData error
func InsufficientData(message string) error {
	return &AppError{
		Type:    ErrorTypeInsufficientData,
		Message: message,
	}
}

// DegenerateData creates a new DegenerateData error
func DegenerateData(message string) error {
	return &AppError{
		Type:    ErrorTypeDegenerateData,
		Message: message,
	}
}

// NonConvergence creates a new NonConvergence error
func NonConvergence(message string) error {
	return &AppError{
		Type:    ErrorTypeNonConvergence,
		Message: message,
	}
}

// Timeout creates a new Timeout error
func Timeout(message string) error {
	return &AppError{
		Type:    ErrorTypeTimeout,
		Message: message,
	}
}

// Internal creates a new Internal error
func Internal(message string) error {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
	}
}

// NotFoundf creates a new NotFound error with a formatted message
func NotFoundf(format string, args ...interface{}) error {
	return NotFound(fmt.Sprintf(format, args...))
}

// DegenerateDataf creates a new DegenerateData error with a formatted message
func DegenerateDataf(format string, args ...interface{}) error {
	return DegenerateData(fmt.Sprintf(format, args...))
}

// NonConvergencef creates a new NonConvergence error with a formatted message
func NonConvergencef(format string, args ...interface{}) error {
	return NonConvergence(fmt.Sprintf(format, args...))
}
