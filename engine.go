package restrpc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
)

// TransportFunc performs one HTTP exchange, blocking until a response is
// available or the context is done. Returning an error means no status line
// was obtained; a response with an error status code is returned as a
// *Response, not an error.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// TransportResult is the completion value of an AsyncTransportFunc.
type TransportResult struct {
	Response *Response
	Err      error
}

// AsyncTransportFunc starts one HTTP exchange and reports completion on the
// returned channel. The channel must deliver exactly one result.
type AsyncTransportFunc func(ctx context.Context, req *Request) <-chan TransportResult

// Engine selects the transport mechanism a client dispatches through. It is
// a sealed set of variants — HTTPEngine, TestEngine, CustomEngine — each
// validated exhaustively when the client is constructed, so a misconfigured
// engine fails at NewClient rather than at first call.
type Engine interface {
	// dispatcher validates the variant's configuration and returns the
	// canonical blocking dispatch function the pipeline is built on.
	dispatcher() (TransportFunc, error)

	// needsBaseURL reports whether the variant requires Config.BaseURL.
	needsBaseURL() bool
}

// HTTPEngine dispatches over net/http, occupying the calling goroutine until
// I/O completes. Client is the session handle; connection pooling and
// timeouts belong to it. A nil Client uses http.DefaultClient.
type HTTPEngine struct {
	Client *http.Client
}

func (e HTTPEngine) needsBaseURL() bool { return true }

func (e HTTPEngine) dispatcher() (TransportFunc, error) {
	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, req *Request) (*Response, error) {
		var body io.Reader
		if req.Body != nil {
			body = bytes.NewReader(req.Body)
		}
		hreq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
		if err != nil {
			return nil, err
		}
		for name, value := range req.Headers {
			hreq.Header.Set(name, value)
		}

		resp, err := client.Do(hreq)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return &Response{
			StatusCode: resp.StatusCode,
			Headers:    flattenHeader(resp.Header),
			Body:       raw,
		}, nil
	}, nil
}

// TestEngine dispatches in-process against an http.Handler. No sockets are
// opened; the handler runs on the calling goroutine. Intended for tests and
// for exercising a finalized implementation without a listener.
type TestEngine struct {
	Handler http.Handler
}

func (e TestEngine) needsBaseURL() bool { return false }

func (e TestEngine) dispatcher() (TransportFunc, error) {
	if e.Handler == nil {
		return nil, errors.New("restrpc: test engine requires a handler")
	}
	return func(ctx context.Context, req *Request) (*Response, error) {
		var body io.Reader
		if req.Body != nil {
			body = bytes.NewReader(req.Body)
		}
		hreq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
		if err != nil {
			return nil, err
		}
		for name, value := range req.Headers {
			hreq.Header.Set(name, value)
		}

		rec := &responseRecorder{status: http.StatusOK, header: make(http.Header)}
		e.Handler.ServeHTTP(rec, hreq)
		return &Response{
			StatusCode: rec.status,
			Headers:    flattenHeader(rec.header),
			Body:       rec.body.Bytes(),
		}, nil
	}, nil
}

// CustomEngine dispatches through a user-supplied transport. Exactly one of
// Transport (blocking calling convention) or AsyncTransport (completion
// delivered on a channel) must be set; which field is set disambiguates the
// calling convention.
type CustomEngine struct {
	Transport      TransportFunc
	AsyncTransport AsyncTransportFunc
}

func (e CustomEngine) needsBaseURL() bool { return false }

func (e CustomEngine) dispatcher() (TransportFunc, error) {
	switch {
	case e.Transport != nil && e.AsyncTransport != nil:
		return nil, errors.New("restrpc: custom engine must set exactly one of Transport and AsyncTransport")
	case e.Transport != nil:
		return e.Transport, nil
	case e.AsyncTransport != nil:
		transport := e.AsyncTransport
		return func(ctx context.Context, req *Request) (*Response, error) {
			select {
			case res := <-transport(ctx, req):
				return res.Response, res.Err
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}, nil
	default:
		return nil, errors.New("restrpc: custom engine requires a transport")
	}
}

// responseRecorder is a minimal in-memory http.ResponseWriter for TestEngine.
type responseRecorder struct {
	status int
	header http.Header
	body   bytes.Buffer
	wrote  bool
}

func (r *responseRecorder) Header() http.Header { return r.header }

func (r *responseRecorder) WriteHeader(code int) {
	if r.wrote {
		return
	}
	r.wrote = true
	r.status = code
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.wrote {
		r.WriteHeader(http.StatusOK)
	}
	return r.body.Write(b)
}

// flattenHeader collapses an http.Header to one value per name, matching the
// wire-level Response contract.
func flattenHeader(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for name := range h {
		out[name] = h.Get(name)
	}
	return out
}
