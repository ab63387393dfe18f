package errors

import (
	"errors"
	"fmt"
)

// Standard error types that can be used throughout the application
var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInternalError = errors.New("internal error")
	ErrTimeout       = errors.New("operation timed out")
	ErrUnavailable   = errors.New("service unavailable")

	// Domain-specific error sentinel values
	ErrNoProviderAvailable = errors.New("no speech-to-text provider available")
	ErrRecognitionFailed   = errors.New("speech recognition failed")
	ErrUnsupportedAudio    = errors.New("unsupported audio format")
	ErrBatchMismatch       = errors.New("number of audio files must match number of expected texts")
	ErrFeedbackUnavailable = errors.New("feedback generation unavailable")
)

// Error is a structured error carrying contextual fields alongside the
// wrapped cause.
type Error struct {
	original error
	message  string
	fields   map[string]interface{}
}

// New creates a new structured error with the given message
func New(message string, fields ...map[string]interface{}) *Error {
	return &Error{
		original: errors.New(message),
		message:  message,
		fields:   firstFields(fields),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, message string, fields ...map[string]interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		original: err,
		message:  message,
		fields:   firstFields(fields),
	}
}

func firstFields(fields []map[string]interface{}) map[string]interface{} {
	if len(fields) > 0 && fields[0] != nil {
		return fields[0]
	}
	return make(map[string]interface{})
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.original != nil && e.message != e.original.Error() {
		return fmt.Sprintf("%s: %s", e.message, e.original.Error())
	}
	return e.message
}

// Unwrap returns the underlying error for errors.Is / errors.As
func (e *Error) Unwrap() error {
	return e.original
}

// Fields returns the contextual fields attached to the error
func (e *Error) Fields() map[string]interface{} {
	return e.fields
}

// WithField adds a single contextual field to the error
func (e *Error) WithField(key string, value interface{}) *Error {
	e.fields[key] = value
	return e
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
