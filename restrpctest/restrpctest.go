// Package restrpctest provides test helpers for restrpc contracts: clients
// wired to an implementation in-process, and optional real listeners.
package restrpctest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/restrpc/restrpc"
)

// NewClient finalizes impl and returns a client that dispatches against it
// in-process, with no sockets. Binding or finalization failures fail the
// test immediately.
func NewClient(t testing.TB, impl *restrpc.Implementation, opts ...restrpc.ClientOption) *restrpc.Client {
	t.Helper()

	h, err := impl.Finalize()
	if err != nil {
		t.Fatalf("restrpctest: finalize implementation: %v", err)
	}
	return NewClientFor(t, impl, h, opts...)
}

// NewClientFor builds an in-process client for an already finalized handler.
func NewClientFor(t testing.TB, impl *restrpc.Implementation, h http.Handler, opts ...restrpc.ClientOption) *restrpc.Client {
	t.Helper()

	c, err := restrpc.NewClient(impl.Definition(), restrpc.Config{
		Engine: restrpc.TestEngine{Handler: h},
	}, opts...)
	if err != nil {
		t.Fatalf("restrpctest: build client: %v", err)
	}
	return c
}

// NewServer finalizes impl and serves it from a real httptest listener. The
// server is shut down when the test ends.
func NewServer(t testing.TB, impl *restrpc.Implementation) *httptest.Server {
	t.Helper()

	h, err := impl.Finalize()
	if err != nil {
		t.Fatalf("restrpctest: finalize implementation: %v", err)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}
