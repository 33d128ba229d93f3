package models

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind is the adapter-boundary failure taxonomy. Everything a provider
// can do wrong collapses into one of these four.
type ErrorKind string

const (
	ErrTimeout           ErrorKind = "timeout"
	ErrUnreachable       ErrorKind = "unreachable"
	ErrMalformedResponse ErrorKind = "malformed_response"
	ErrNotFound          ErrorKind = "not_found"
)

// FetchError is the typed error returned by provider adapters. Adapters never
// panic and never return silent defaults; a failure is always one of these.
type FetchError struct {
	Provider ProviderID
	Kind     ErrorKind
	Msg      string
	Err      error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Provider, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Msg)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError builds a FetchError wrapping cause (cause may be nil).
func NewFetchError(p ProviderID, kind ErrorKind, msg string, cause error) *FetchError {
	return &FetchError{Provider: p, Kind: kind, Msg: msg, Err: cause}
}

// ClassifyTransport maps a raw transport error onto the taxonomy: deadline
// and net timeouts become Timeout, everything else Unreachable.
func ClassifyTransport(p ProviderID, err error) *FetchError {
	kind := ErrUnreachable
	if errors.Is(err, context.DeadlineExceeded) {
		kind = ErrTimeout
	} else {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			kind = ErrTimeout
		}
	}
	return &FetchError{Provider: p, Kind: kind, Msg: "transport", Err: err}
}

// KindOf extracts the ErrorKind from any error in the chain, defaulting to
// Unreachable for errors that did not come through an adapter.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ErrUnreachable
}
