package context

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind is the structured error taxonomy from the error-handling design.
// Callers and tests match on Kind, never on error string content.
type ErrorKind string

const (
	KindValidation         ErrorKind = "ValidationError"
	KindUnknownKind         ErrorKind = "UnknownKind"
	KindUnknownCodec        ErrorKind = "UnknownCodec"
	KindDuplicateCodec      ErrorKind = "DuplicateCodec"
	KindForbiddenFieldLeak  ErrorKind = "ForbiddenFieldLeak"
	KindSensitivityViolation ErrorKind = "SensitivityViolation"
	KindEstimatorUnavailable ErrorKind = "EstimatorUnavailable"
	KindOverflow            ErrorKind = "OverflowError"
	KindImpossibleQuery     ErrorKind = "ImpossibleQuery"
)

// Error is the structured error carried through the taxonomy. Identifier
// names the offending block hash, codec id, or field name so tests and
// observability can match on Kind without parsing Error().
type Error struct {
	Kind       ErrorKind
	Message    string
	Identifier string
	Cause      error
}

func (e *Error) Error() string {
	if e.Identifier != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Identifier)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError builds a structured Error, wrapping cause (if any) with pkg/errors
// so stack trace context survives.
func NewError(kind ErrorKind, identifier, message string, cause error) *Error {
	if cause != nil {
		cause = errors.Wrap(cause, message)
	}
	return &Error{Kind: kind, Message: message, Identifier: identifier, Cause: cause}
}

// IsKind reports whether err is a *Error of the given kind, unwrapping as
// needed.
func IsKind(err error, kind ErrorKind) bool {
	var ce *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			ce = e
			break
		}
		err = errors.Unwrap(err)
	}
	return ce != nil && ce.Kind == kind
}
