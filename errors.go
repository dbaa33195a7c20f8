package restrpc

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors for the build phase. Registration and binding wrap these
// with route context, so callers can match broadly with errors.Is while the
// message still names the offending route.
var (
	ErrDuplicateRoute    = errors.New("duplicate route")
	ErrInvalidMethod     = errors.New("invalid method")
	ErrInvalidPath       = errors.New("invalid path")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrUnknownRoute      = errors.New("unknown route")
	ErrDuplicateHandler  = errors.New("duplicate handler")
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrIncompleteBinding = errors.New("incomplete binding")
	ErrDefinitionFrozen  = errors.New("definition frozen")
)

// ErrCommunication is the base of the call-time error taxonomy. Every error
// produced by a client call — NetworkError, HTTPError, DecodeError,
// ValidationError — matches it under errors.Is.
var ErrCommunication = errors.New("communication error")

// NetworkError reports a transport failure before any status line was
// obtained: connection refused, DNS failure, timeout, cancelled context.
// A response that carries a status code never produces a NetworkError.
type NetworkError struct {
	Route string // "METHOD /path" of the failing call
	URL   string
	Err   error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Route, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrCommunication }

// HTTPError reports a response with status code >= 400. The raw body is
// retained as received; it is never decoded.
type HTTPError struct {
	Route      string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: %s %s: status %d", e.Route, e.URL, e.StatusCode)
}

func (e *HTTPError) Is(target error) bool { return target == ErrCommunication }

// DecodeError reports a success response whose body is not parseable as the
// wire format. Body holds the raw bytes that failed to parse.
type DecodeError struct {
	Route string
	URL   string
	Body  []byte
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error: %s %s: %v", e.Route, e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrCommunication }

// ValidationError reports a parseable response body that does not match the
// route's declared return type. Value holds the parsed structure, Expected
// the declared type.
type ValidationError struct {
	Route    string
	URL      string
	Value    any
	Expected reflect.Type
	Err      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s %s: response does not match %s: %v", e.Route, e.URL, e.Expected, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrCommunication }
