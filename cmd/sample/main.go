// Command sample demonstrates a restrpc contract shared by a server and a
// client.
//
// Run the server:
//
//	go run ./cmd/sample
//
// Print the route table:
//
//	go run ./cmd/sample -routes
//
// Exercise the API from the client side (against a running server):
//
//	go run ./cmd/sample -call
//
// Configuration comes from the environment: ADDR (listen address) and
// BASE_URL (client target).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/restrpc/restrpc"
)

type config struct {
	Addr    string `env:"ADDR" envDefault:":8080"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`
}

// Item is the resource exchanged by the sample API.
type Item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type listItemsReq struct {
	Limit int `query:"limit" default:"10"`
}

type readItemReq struct {
	ItemID int `path:"item_id"`
}

type createItemReq struct {
	Body struct {
		Name string `json:"name"`
	}
}

type deleteItemReq struct {
	ItemID int `path:"item_id"`
}

// newDefinition declares the contract both sides are built from.
func newDefinition() (*restrpc.Definition, error) {
	def := restrpc.NewDefinition()
	if err := restrpc.Get[listItemsReq, []Item](def, "/items"); err != nil {
		return nil, err
	}
	if err := restrpc.Get[readItemReq, Item](def, "/items/{item_id}"); err != nil {
		return nil, err
	}
	if err := restrpc.Post[createItemReq, Item](def, "/items"); err != nil {
		return nil, err
	}
	if err := restrpc.Delete[deleteItemReq, restrpc.Void](def, "/items/{item_id}"); err != nil {
		return nil, err
	}
	return def, nil
}

// store is the in-memory item repository backing the sample handlers.
type store struct {
	mu    sync.Mutex
	next  int
	items map[int]Item
}

func newStore() *store {
	return &store{next: 1, items: make(map[int]Item)}
}

func (s *store) newImplementation(def *restrpc.Definition) (*restrpc.Implementation, error) {
	impl := restrpc.NewImplementation(def)
	if err := restrpc.Bind(impl, http.MethodGet, "/items", s.list); err != nil {
		return nil, err
	}
	if err := restrpc.Bind(impl, http.MethodGet, "/items/{item_id}", s.read); err != nil {
		return nil, err
	}
	if err := restrpc.Bind(impl, http.MethodPost, "/items", s.create); err != nil {
		return nil, err
	}
	if err := restrpc.Bind(impl, http.MethodDelete, "/items/{item_id}", s.remove); err != nil {
		return nil, err
	}
	return impl, nil
}

func (s *store) list(_ context.Context, req *listItemsReq) (*[]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		if len(out) == req.Limit {
			break
		}
		out = append(out, item)
	}
	return &out, nil
}

func (s *store) read(_ context.Context, req *readItemReq) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[req.ItemID]
	if !ok {
		return nil, restrpc.Errorf(http.StatusNotFound, "item %d not found", req.ItemID)
	}
	return &item, nil
}

func (s *store) create(_ context.Context, req *createItemReq) (*Item, error) {
	if req.Body.Name == "" {
		return nil, restrpc.Error(http.StatusBadRequest, "name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := Item{ID: s.next, Name: req.Body.Name}
	s.next++
	s.items[item.ID] = item
	return &item, nil
}

func (s *store) remove(_ context.Context, req *deleteItemReq) (*restrpc.Void, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[req.ItemID]; !ok {
		return nil, restrpc.Errorf(http.StatusNotFound, "item %d not found", req.ItemID)
	}
	delete(s.items, req.ItemID)
	return &restrpc.Void{}, nil
}

func main() {
	routesFlag := flag.Bool("routes", false, "Print the route table and exit")
	callFlag := flag.Bool("call", false, "Run sample client calls and exit")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	def, err := newDefinition()
	if err != nil {
		slog.Error("definition", "err", err)
		os.Exit(1)
	}

	if *routesFlag {
		if err := def.WriteRoutes(os.Stdout); err != nil {
			slog.Error("write routes", "err", err)
			os.Exit(1)
		}
		return
	}

	if *callFlag {
		if err := runClient(def, cfg.BaseURL); err != nil {
			slog.Error("client", "err", err)
			os.Exit(1)
		}
		return
	}

	impl, err := newStore().newImplementation(def)
	if err != nil {
		slog.Error("bind handlers", "err", err)
		os.Exit(1)
	}
	h, err := impl.Finalize()
	if err != nil {
		slog.Error("finalize", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info("starting server", "addr", cfg.Addr)
	if err := listenAndServe(ctx, cfg.Addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "err", err)
	}
	slog.Info("server stopped")
}

// listenAndServe blocks until the context is cancelled, then shuts down
// gracefully.
func listenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// runClient exercises the contract from the client side over net/http.
func runClient(def *restrpc.Definition, baseURL string) error {
	c, err := restrpc.NewClient(def, restrpc.Config{
		BaseURL: baseURL,
		Engine:  restrpc.HTTPEngine{Client: &http.Client{Timeout: 10 * time.Second}},
	},
		restrpc.WithLogger(slog.Default()),
		restrpc.WithRequestID(),
		restrpc.WithRateLimit(20, 5),
	)
	if err != nil {
		return err
	}

	ctx := context.Background()

	create, err := restrpc.NewAccessor[createItemReq, Item](c, http.MethodPost, "/items")
	if err != nil {
		return err
	}
	var req createItemReq
	req.Body.Name = "foo"
	item, err := create.Call(ctx, &req)
	if err != nil {
		return err
	}
	fmt.Printf("created: %+v\n", *item)

	read, err := restrpc.NewAccessor[readItemReq, Item](c, http.MethodGet, "/items/{item_id}")
	if err != nil {
		return err
	}
	// Future-returning flavor of the same pipeline.
	future := read.Start(ctx, &readItemReq{ItemID: item.ID})
	got, err := future.Await(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("read: %+v\n", *got)

	items, err := restrpc.Invoke[listItemsReq, []Item](ctx, c, http.MethodGet, "/items", &listItemsReq{})
	if err != nil {
		return err
	}
	fmt.Printf("list: %+v\n", *items)
	return nil
}
