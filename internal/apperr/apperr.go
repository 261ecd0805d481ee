// Package apperr defines the failure kinds the service distinguishes between when
// reporting errors to callers.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an error for propagation and status mapping.
type Kind int

const (
	// KindInternal is anything not classified below.
	KindInternal Kind = iota

	// KindValidation is missing or malformed caller input. No upstream was contacted.
	KindValidation

	// KindUpstream is a transport failure or non-success response from a third-party provider.
	KindUpstream

	// KindNotFound is a valid request with a reachable upstream but no matching entity.
	KindNotFound

	// KindRateLimited is a request rejected by the local rate limiter.
	KindRateLimited

	// KindUnavailable is a dependency that is not configured in this deployment.
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUpstream:
		return "upstream"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is a classified failure. It wraps the underlying cause so errors.Is/As
// continue to see through it.
type Error struct {
	Kind Kind

	// Provider names the upstream involved, if any (e.g. "opensky").
	Provider string

	// StatusCode is the upstream HTTP status; 0 for transport failures.
	StatusCode int

	// RetryAfter is the wait hint for rate-limited outcomes, local or upstream.
	RetryAfter time.Duration

	// Message is the caller-safe description.
	Message string

	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports malformed or missing input.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a well-formed request that matched nothing.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Upstream reports a provider failure. status is 0 for transport errors.
func Upstream(provider string, status int, err error) *Error {
	msg := "upstream request failed"
	if status != 0 {
		msg = fmt.Sprintf("upstream returned status %d", status)
	}
	return &Error{Kind: KindUpstream, Provider: provider, StatusCode: status, Message: msg, Err: err}
}

// RateLimited reports a request rejected by the local limiter.
func RateLimited(retryAfter time.Duration) *Error {
	return &Error{Kind: KindRateLimited, RetryAfter: retryAfter, Message: "too many requests"}
}

// Unavailable reports a dependency that is not configured.
func Unavailable(format string, args ...any) *Error {
	return &Error{Kind: KindUnavailable, Message: fmt.Sprintf(format, args...)}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
