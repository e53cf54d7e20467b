// Package domainerrors provides coded errors for domain rule violations.
// Services create these at their boundary so transports and message
// consumers can translate them without string matching.
package domainerrors

import "errors"

// Code classifies a domain error. Codes describe what the caller did wrong
// or what the data looked like, never how the failure was produced.
type Code string

const (
	// CodeMissingField marks a blank required field in a request.
	CodeMissingField Code = "missing_field"

	// CodeNotFound marks a lookup for a person that is not enrolled.
	CodeNotFound Code = "not_found"

	// CodeAlreadyExists marks a registration for an already-enrolled
	// fingerprint ID. Registration is append-only, never an overwrite.
	CodeAlreadyExists Code = "already_exists"

	// CodeDuplicateDay marks a second attendance record for the same
	// person on the same calendar day.
	CodeDuplicateDay Code = "duplicate_day"

	// CodeInvalidRange marks a time-range query whose start is after its end.
	CodeInvalidRange Code = "invalid_range"

	// CodeEmpty marks a list-returning query that matched no records.
	// Count-returning queries return zero instead; see CodeEmpty call sites.
	CodeEmpty Code = "empty"

	// CodeNoWorkingDays marks a percentage window with zero Mon-Fri days.
	CodeNoWorkingDays Code = "no_working_days"

	// CodeUnavailable marks the message bridge being disconnected.
	CodeUnavailable Code = "unavailable"

	// CodeInternal marks infrastructure failures surfaced to callers.
	CodeInternal Code = "internal"
)

// Error carries a code plus a user-presentable message. The message travels
// across the message boundary verbatim, so keep it client-correctable.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err or anything it wraps carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code carried by err, or CodeInternal when err is not
// a domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// IsDomain reports whether err is a domain error at all. Parse failures and
// infrastructure errors are deliberately not domain errors.
func IsDomain(err error) bool {
	var de *Error
	return errors.As(err, &de)
}
