package boltcodes

import (
	"errors"
	"fmt"
)

// Error is the driver's error type: a closed Code plus a human-readable
// context string (mirroring the teacher's "pkg: step" prefix convention)
// and an optional low-level cause.
type Error struct {
	Code    Code
	Context string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Context)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error with no underlying cause.
func New(code Code, context string) *Error {
	return &Error{Code: code, Context: context}
}

// Wrap builds an Error carrying a low-level cause, in the same spirit as
// the teacher's fmt.Errorf("pkg: step: %w", err).
func Wrap(code Code, context string, cause error) *Error {
	return &Error{Code: code, Context: context, Cause: cause}
}

// CodeOf extracts the Code from err if it (or something it wraps) is an
// *Error, otherwise returns UnknownError.
func CodeOf(err error) Code {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return UnknownError
}
