// Package fetcherr normalizes every failure surfaced by the catalog fetchers
// into a single error type tagged with the kind of failure.
//
// Transport errors cover network failures, non-success statuses, and timeouts
// reported by the transport. Decode errors cover malformed payloads and
// schema mismatches. Callers branch with IsTransport/IsDecode or errors.Is
// against ErrTransport/ErrDecode; errors.As exposes the structured fields.
package fetcherr

import (
	"errors"
	"fmt"
)

// Kind tags the class of failure carried by an Error.
type Kind int

const (
	// KindTransport marks failures raised while performing the HTTP GET.
	KindTransport Kind = iota + 1
	// KindDecode marks failures raised while mapping the body onto records.
	KindDecode
)

// String renders the kind for log fields and messages.
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

var (
	// ErrTransport matches any transport-class Error via errors.Is.
	ErrTransport = errors.New("transport error")
	// ErrDecode matches any decode-class Error via errors.Is.
	ErrDecode = errors.New("decode error")
)

// Error is the uniform failure returned by fetch operations.
type Error struct {
	Kind   Kind
	Source string
	URL    string
	Err    error
}

// Transport wraps err as a transport failure for the given source and URL.
func Transport(source, url string, err error) *Error {
	return &Error{Kind: KindTransport, Source: source, URL: url, Err: err}
}

// Decode wraps err as a decode failure for the given source and URL.
func Decode(source, url string, err error) *Error {
	return &Error{Kind: KindDecode, Source: source, URL: url, Err: err}
}

// Error keeps the underlying diagnostic text intact.
func (e *Error) Error() string {
	msg := "unknown failure"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.URL == "" {
		return fmt.Sprintf("%s %s error: %s", e.Source, e.Kind, msg)
	}
	return fmt.Sprintf("%s %s error (%s): %s", e.Source, e.Kind, e.URL, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrDecode:
		return e.Kind == KindDecode
	default:
		return false
	}
}

// IsTransport reports whether err carries a transport failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsDecode reports whether err carries a decode failure.
func IsDecode(err error) bool {
	return errors.Is(err, ErrDecode)
}
