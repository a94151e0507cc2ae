package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// RateLimitedError signals that an upstream provider throttled us. The API layer
// maps it to a 429 with a retry hint instead of a generic failure.
type RateLimitedError struct {
	Provider string
}

func (err RateLimitedError) Error() string {
	return "rate limited by " + err.Provider
}

func IsRateLimited(err error) bool {
	_, ok := errors.Cause(err).(*RateLimitedError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
