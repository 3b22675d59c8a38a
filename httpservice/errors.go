package httpservice

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is reported when an attempt hits its deadline before the
	// caller cancelled.
	ErrTimeout = errors.New("request timed out")

	// ErrNetworkUnavailable is reported when the network probe says the
	// host is offline. The call is not attempted.
	ErrNetworkUnavailable = errors.New("network unavailable")

	// ErrMalformedURL is reported when the resolved URL cannot be parsed
	// or lacks a scheme or host.
	ErrMalformedURL = errors.New("malformed url")

	// ErrEmptyContent is reported for a successful response without a body.
	ErrEmptyContent = errors.New("content is empty")

	// ErrRequestFailed is reported when the parser receives no response.
	ErrRequestFailed = errors.New("request fail")

	// ErrDecrypt is reported when a Decrypter rejects the body.
	ErrDecrypt = errors.New("decrypt fail")
)

// ErrorKind categorizes a failed invocation.
type ErrorKind int

const (
	// KindBuild covers packing and request construction failures.
	KindBuild ErrorKind = iota + 1
	// KindHook covers pre-process hook failures.
	KindHook
	// KindNetwork covers transport failures such as refused connections.
	KindNetwork
	// KindTimeout covers attempts that hit their deadline.
	KindTimeout
	// KindCancelled covers caller cancellation and an unavailable network.
	KindCancelled
	// KindStatus covers responses with a non-2xx status.
	KindStatus
	// KindEmpty covers successful responses without a body.
	KindEmpty
	// KindDecode covers bodies that could not be decoded.
	KindDecode
)

// String returns the kind name used in logs and metric attributes.
func (k ErrorKind) String() string {
	switch k {
	case KindBuild:
		return "build"
	case KindHook:
		return "hook"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindCancelled:
		return "cancelled"
	case KindStatus:
		return "status"
	case KindEmpty:
		return "empty"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// ParseError is the failure side of a ParseResult.
type ParseError struct {
	Kind ErrorKind

	// StatusCode is set for KindStatus, and for other kinds when a response
	// was received.
	StatusCode int

	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements error.
func (e *ParseError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("httpservice: %s: %d %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpservice: %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Cancelled reports whether the call was cancelled or never attempted.
func (e *ParseError) Cancelled() bool {
	return e != nil && e.Kind == KindCancelled
}

func newParseError(kind ErrorKind, err error) *ParseError {
	pe := &ParseError{Kind: kind, Err: err}
	if err != nil {
		pe.Message = err.Error()
	}
	return pe
}

func cancelledError(cause error) *ParseError {
	if cause == nil {
		cause = errors.New("cancelled")
	}
	return newParseError(KindCancelled, cause)
}
