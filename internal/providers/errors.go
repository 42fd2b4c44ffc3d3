// Package providers hosts the upstream adapter registry and the error
// taxonomy shared by every provider client. A fetch failure is never
// indistinguishable from a game-free date: adapters return a typed error or a
// genuinely empty slice, never an empty slice that hides a failure.
package providers

import (
	"errors"
	"fmt"
)

// FetchError reports a transport-level failure: timeout, connection error, or
// a non-success HTTP status from the upstream.
type FetchError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: fetch failed (status=%d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: fetch failed: %v", e.Provider, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports a payload the adapter could not map: malformed JSON or a
// response missing a required shape.
type ParseError struct {
	Provider string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse failed: %v", e.Provider, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// AsFetchError attempts to unwrap an error into a FetchError.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// AsParseError attempts to unwrap an error into a ParseError.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
