package restrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
)

// Accessor is a typed entry point for one route. It is validated against the
// route's declared shape once, at construction, and then shares a single
// bind → dispatch → classify → decode → validate pipeline between its
// blocking (Call) and future-returning (Start) conventions.
type Accessor[Req, Resp any] struct {
	c     *Client
	route *RouteDescriptor
	plan  []boundSlot
}

// NewAccessor builds an accessor for the route registered under method and
// path. It fails with ErrUnknownRoute if no such route exists and with
// ErrSignatureMismatch if Req's parameter shape or Resp does not structurally
// match the declaration.
func NewAccessor[Req, Resp any](c *Client, method, path string) (*Accessor[Req, Resp], error) {
	route, ok := c.def.lookup(method, path)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrUnknownRoute, method, path)
	}

	plan, err := slotsOf(reflect.TypeFor[Req]())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSignatureMismatch, route, err)
	}
	if err := matchSlots(route, plan); err != nil {
		return nil, err
	}
	if respType := reflect.TypeFor[Resp](); !typesEqual(respType, route.returns) {
		return nil, fmt.Errorf("%w: %s: return type %s does not match declared %s",
			ErrSignatureMismatch, route, respType, route.returns)
	}

	return &Accessor[Req, Resp]{c: c, route: route, plan: plan}, nil
}

// Route returns the descriptor this accessor was built for.
func (a *Accessor[Req, Resp]) Route() *RouteDescriptor { return a.route }

// Call performs one request, blocking the calling goroutine until the typed
// result is available. Every failure is one of the ErrCommunication kinds;
// no retries are attempted.
func (a *Accessor[Req, Resp]) Call(ctx context.Context, req *Req) (*Resp, error) {
	wreq, err := a.c.buildRequest(a.route, a.plan, req)
	if err != nil {
		return nil, err
	}
	resp, err := a.c.do(ctx, a.route, wreq)
	if err != nil {
		return nil, err
	}
	return decodeResponse[Resp](a.route, wreq, resp)
}

// Start begins one request and returns immediately with a Future for the
// result. The call runs on its own goroutine; cancelling ctx aborts it.
func (a *Accessor[Req, Resp]) Start(ctx context.Context, req *Req) *Future[Resp] {
	f := &Future[Resp]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = a.Call(ctx, req)
	}()
	return f
}

// Invoke is the one-shot form of NewAccessor plus Call.
func Invoke[Req, Resp any](ctx context.Context, c *Client, method, path string, req *Req) (*Resp, error) {
	acc, err := NewAccessor[Req, Resp](c, method, path)
	if err != nil {
		return nil, err
	}
	return acc.Call(ctx, req)
}

// Future is the handle returned by Accessor.Start. It completes exactly once.
type Future[T any] struct {
	done chan struct{}
	val  *T
	err  error
}

// Done returns a channel that is closed when the call completes.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the call completes or ctx is done. An Await abandoned
// by ctx returns ctx.Err(); the underlying call keeps running and can still
// be awaited again.
func (f *Future[T]) Await(ctx context.Context) (*T, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.done:
		return f.val, f.err
	}
}

// decodeResponse parses a success response body as JSON and validates it
// against the declared return type. A body that is not JSON at all is a
// DecodeError; JSON that does not fit the type — unknown fields, wrong field
// types — is a ValidationError carrying the parsed value.
func decodeResponse[Resp any](route *RouteDescriptor, wreq *Request, resp *Response) (*Resp, error) {
	out := new(Resp)
	if reflect.TypeFor[Resp]() == voidType {
		return out, nil
	}

	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if isSyntaxError(err) {
			return nil, &DecodeError{Route: route.String(), URL: wreq.URL, Body: resp.Body, Err: err}
		}
		var parsed any
		_ = json.Unmarshal(resp.Body, &parsed) // best effort, for diagnostics
		return nil, &ValidationError{
			Route:    route.String(),
			URL:      wreq.URL,
			Value:    parsed,
			Expected: reflect.TypeFor[Resp](),
			Err:      err,
		}
	}
	return out, nil
}

// isSyntaxError reports whether a json decode failure means the body was not
// parseable at all, as opposed to parseable but ill-typed.
func isSyntaxError(err error) bool {
	var syn *json.SyntaxError
	return errors.As(err, &syn) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
