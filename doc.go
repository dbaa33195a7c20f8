// Package restrpc keeps a REST contract shared between a server and its
// clients in one place. Routes are declared once on a Definition — method,
// path template, typed parameters, return type — and both sides are checked
// against that declaration at build time, not at first request.
//
// Request types are the source of truth for parameters. Struct tags classify
// each field as a path, query, or header parameter, and a field named Body
// carries the request body:
//
//	type ReadItemReq struct {
//	    ItemID int    `path:"item_id"`
//	    Q      string `query:"q" default:""`
//	}
//
//	def := restrpc.NewDefinition()
//	restrpc.Get[ReadItemReq, Item](def, "/items/{item_id}")
//
// Servers bind one handler per route. A handler whose request or response
// type drifts from the declaration is rejected when it is bound:
//
//	impl := restrpc.NewImplementation(def)
//	restrpc.Bind(impl, http.MethodGet, "/items/{item_id}", readItem)
//	h, err := impl.Finalize() // fails unless every route is bound
//
// Clients build typed accessors from the same Definition. One pipeline —
// bind, dispatch, classify, decode, validate — backs both the blocking and
// the future-returning calling convention:
//
//	c, _ := restrpc.NewClient(def, restrpc.Config{
//	    BaseURL: "http://localhost:8080",
//	    Engine:  restrpc.HTTPEngine{},
//	})
//	readItem, _ := restrpc.NewAccessor[ReadItemReq, Item](c, http.MethodGet, "/items/{item_id}")
//	item, err := readItem.Call(ctx, &ReadItemReq{ItemID: 3})
//
// Call failures share the ErrCommunication base, so callers can match the
// whole taxonomy with errors.Is or a single kind with errors.As.
package restrpc
