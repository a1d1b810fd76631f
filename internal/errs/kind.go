package errs

import (
	"errors"
	"fmt"
)

// Kind classifies user-visible failures. All kinds are terminal: callers
// resubmit, nothing retries automatically.
type Kind string

const (
	KindInternal            Kind = "internal"
	KindNotFound            Kind = "not_found"
	KindInvalidState        Kind = "invalid_state"
	KindInvalidReference    Kind = "invalid_reference"
	KindConflict            Kind = "conflict"
	KindMissingRequiredFile Kind = "missing_required_file"
	KindTooManyFiles        Kind = "too_many_files"
	KindUnsupportedFileType Kind = "unsupported_file_type"
	KindValidation          Kind = "validation_error"
	KindUnauthorized        Kind = "unauthorized"
	KindForbidden           Kind = "forbidden"
)

// Error is a classified failure. Expected/Actual are only set for
// InvalidState errors raised by transition guards.
type Error struct {
	Kind     Kind
	Op       string
	Msg      string
	Expected string
	Actual   string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Kind == KindInvalidState && (e.Expected != "" || e.Actual != "") {
		msg = fmt.Sprintf("%s (expected %q, actual %q)", msg, e.Expected, e.Actual)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, errs.NotFound) works
// against the package-level sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == "" && t.Op == ""
}

var (
	NotFound            = &Error{Kind: KindNotFound}
	InvalidState        = &Error{Kind: KindInvalidState}
	InvalidReference    = &Error{Kind: KindInvalidReference}
	Conflict            = &Error{Kind: KindConflict}
	MissingRequiredFile = &Error{Kind: KindMissingRequiredFile}
	TooManyFiles        = &Error{Kind: KindTooManyFiles}
	UnsupportedFileType = &Error{Kind: KindUnsupportedFileType}
	Validation          = &Error{Kind: KindValidation}
	Unauthorized        = &Error{Kind: KindUnauthorized}
	Forbidden           = &Error{Kind: KindForbidden}
)

// New builds a classified error.
func New(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf reports a missing entity.
func NotFoundf(op string, format string, args ...any) *Error {
	return New(KindNotFound, op, format, args...)
}

// Validationf reports malformed input.
func Validationf(op string, format string, args ...any) *Error {
	return New(KindValidation, op, format, args...)
}

// StateMismatch reports a transition attempted from the wrong status.
func StateMismatch(op string, expected string, actual string) *Error {
	return &Error{
		Kind:     KindInvalidState,
		Op:       op,
		Msg:      "invalid state transition",
		Expected: expected,
		Actual:   actual,
	}
}

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns the first classified error in the chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
