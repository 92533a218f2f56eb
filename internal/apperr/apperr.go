// Package apperr classifies failures surfaced to IPC clients.
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the failure category of an Error.
type Kind string

const (
	// KindUnavailable means a backing tool or bus is missing or unreachable.
	KindUnavailable Kind = "unavailable"
	// KindInvalid means the request cannot be served as asked.
	KindInvalid Kind = "invalid"
	// KindTimeout means a convergence deadline elapsed.
	KindTimeout Kind = "timeout"
	// KindUpstream means an external command or bus call failed.
	KindUpstream Kind = "upstream"
)

// Error is a categorized failure. Msg is shown to clients as is.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Unavailable builds a KindUnavailable error.
func Unavailable(format string, args ...any) *Error {
	return &Error{Kind: KindUnavailable, Msg: fmt.Sprintf(format, args...)}
}

// Invalid builds a KindInvalid error.
func Invalid(format string, args ...any) *Error {
	return &Error{Kind: KindInvalid, Msg: fmt.Sprintf(format, args...)}
}

// Timeout builds a KindTimeout error.
func Timeout(format string, args ...any) *Error {
	return &Error{Kind: KindTimeout, Msg: fmt.Sprintf(format, args...)}
}

// Upstream builds a KindUpstream error carrying msg verbatim.
func Upstream(msg string) *Error {
	return &Error{Kind: KindUpstream, Msg: msg}
}

// Wrap attaches a kind and message to cause.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
