package restrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// Config selects and configures a client's transport engine. BaseURL is
// prepended to every route path; it is required for network engines and
// optional for in-process and custom engines.
type Config struct {
	BaseURL string
	Engine  Engine
}

// Client turns a Definition's routes into callable accessors. It holds no
// per-call state; every call builds its own Request and the underlying
// Definition is read-only, so a Client is safe for concurrent use.
type Client struct {
	def      *Definition
	baseURL  string
	dispatch TransportFunc

	logger    *slog.Logger
	limiter   *rate.Limiter
	metrics   *clientMetrics
	requestID bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger makes the client log one line per dispatch: route, status,
// latency.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit paces outgoing calls to r requests per second with the given
// burst. Calls wait for a token before dispatching; a context cancelled
// while waiting surfaces as a NetworkError.
func WithRateLimit(r float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// WithMetrics registers per-route request counters and latency histograms
// with reg and records every dispatch.
func WithMetrics(reg prometheus.Registerer) ClientOption {
	return func(c *Client) {
		c.metrics = newClientMetrics(reg)
	}
}

// WithRequestID stamps a fresh X-Request-ID header on every request.
func WithRequestID() ClientOption {
	return func(c *Client) {
		c.requestID = true
	}
}

// NewClient builds a client over def using the engine selected in cfg. The
// engine variant's configuration is validated here, exhaustively, so a
// missing session handle or transport fails fast rather than at first call.
// The definition is frozen as a side effect.
func NewClient(def *Definition, cfg Config, opts ...ClientOption) (*Client, error) {
	if def == nil {
		return nil, errors.New("restrpc: definition is required")
	}
	if cfg.Engine == nil {
		return nil, errors.New("restrpc: engine is required")
	}
	dispatch, err := cfg.Engine.dispatcher()
	if err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" && cfg.Engine.needsBaseURL() {
		return nil, errors.New("restrpc: base URL is required for this engine")
	}

	def.Freeze()
	c := &Client{
		def:      def,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		dispatch: dispatch,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Definition returns the route registry this client was built from.
func (c *Client) Definition() *Definition { return c.def }

// buildRequest binds typed arguments to a route's parameter slots: path
// slots are substituted into the template percent-encoded, query slots go to
// the query string, header slots to the headers, and the body slot is
// serialized as JSON. Query and header slots left at their zero value fall
// back to the slot default.
func (c *Client) buildRequest(route *RouteDescriptor, plan []boundSlot, req any) (*Request, error) {
	rv := reflect.ValueOf(req)
	if len(plan) > 0 && (rv.Kind() != reflect.Pointer || rv.IsNil()) {
		return nil, fmt.Errorf("restrpc: %s: nil request", route)
	}
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}

	path := route.path
	query := url.Values{}
	headers := map[string]string{"Accept": "application/json"}
	var body []byte

	for _, slot := range plan {
		fv := rv.FieldByIndex(slot.index)
		switch slot.Kind {
		case KindPath:
			path = strings.ReplaceAll(path, "{"+slot.Name+"}", url.PathEscape(formatValue(fv)))
		case KindQuery:
			if s, ok := wireValue(slot, fv); ok {
				query.Set(slot.Name, s)
			}
		case KindHeader:
			if s, ok := wireValue(slot, fv); ok {
				headers[slot.headerName()] = s
			}
		case KindBody:
			b, err := json.Marshal(fv.Interface())
			if err != nil {
				return nil, fmt.Errorf("restrpc: %s: encode body: %w", route, err)
			}
			headers["Content-Type"] = "application/json"
			body = b
		}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return &Request{Method: route.method, URL: u, Headers: headers, Body: body}, nil
}

// wireValue renders a query or header slot value, applying the default when
// the field is at its zero value. Empty values are omitted from the wire.
func wireValue(slot boundSlot, fv reflect.Value) (string, bool) {
	s := formatValue(fv)
	if fv.IsZero() && slot.HasDefault {
		s = slot.Default
	}
	return s, s != ""
}

// do dispatches one wire request and classifies the outcome. Transport
// failure before a status line becomes a NetworkError; a status >= 400
// becomes an HTTPError carrying the raw body. Decoding happens downstream.
func (c *Client) do(ctx context.Context, route *RouteDescriptor, wreq *Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{Route: route.String(), URL: wreq.URL, Err: err}
		}
	}
	if c.requestID {
		wreq.Headers["X-Request-ID"] = uuid.NewString()
	}

	start := time.Now()
	resp, err := c.dispatch(ctx, wreq)
	elapsed := time.Since(start)

	if err != nil {
		c.observe(ctx, route, 0, elapsed, err)
		return nil, &NetworkError{Route: route.String(), URL: wreq.URL, Err: err}
	}
	c.observe(ctx, route, resp.StatusCode, elapsed, nil)

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{
			Route:      route.String(),
			URL:        wreq.URL,
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
		}
	}
	return resp, nil
}

func (c *Client) observe(ctx context.Context, route *RouteDescriptor, status int, elapsed time.Duration, err error) {
	if c.metrics != nil {
		c.metrics.observe(route, status, elapsed)
	}
	if c.logger == nil {
		return
	}
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelError, "call failed",
			slog.String("route", route.String()),
			slog.Duration("latency", elapsed),
			slog.String("err", err.Error()),
		)
		return
	}
	c.logger.LogAttrs(ctx, slog.LevelInfo, "call",
		slog.String("route", route.String()),
		slog.Int("status", status),
		slog.Duration("latency", elapsed),
	)
}
