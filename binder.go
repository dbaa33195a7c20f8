package restrpc

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Handler is the typed handler signature. The binder owns serialization —
// handlers never see http.ResponseWriter or *http.Request.
type Handler[Req, Resp any] func(ctx context.Context, req *Req) (*Resp, error)

// Implementation collects handler bindings for a Definition's routes. Bind
// checks each handler's shape against its route at bind time; Finalize
// checks totality. Signature drift between a definition and its
// implementation is therefore caught while building, not at first request.
type Implementation struct {
	def      *Definition
	handlers map[routeKey]http.Handler
}

// NewImplementation creates an empty binding set over def.
func NewImplementation(def *Definition) *Implementation {
	return &Implementation{
		def:      def,
		handlers: make(map[routeKey]http.Handler),
	}
}

// Definition returns the route registry this implementation binds against.
func (impl *Implementation) Definition() *Definition { return impl.def }

// Bind associates a handler with the route registered under method and path.
// It fails with ErrUnknownRoute when no such route exists, ErrDuplicateHandler
// when the route is already bound, and ErrSignatureMismatch when the
// handler's request or response type does not structurally match the route's
// declaration (order-independent; names, kinds, value types, and defaults
// must all agree).
func Bind[Req, Resp any](impl *Implementation, method, path string, h Handler[Req, Resp]) error {
	route, ok := impl.def.lookup(method, path)
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrUnknownRoute, method, path)
	}
	key := routeKey{method: method, path: path}
	if _, ok := impl.handlers[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, route)
	}

	plan, err := slotsOf(reflect.TypeFor[Req]())
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSignatureMismatch, route, err)
	}
	if err := matchSlots(route, plan); err != nil {
		return err
	}
	if respType := reflect.TypeFor[Resp](); !typesEqual(respType, route.returns) {
		return fmt.Errorf("%w: %s: return type %s does not match declared %s",
			ErrSignatureMismatch, route, respType, route.returns)
	}

	impl.handlers[key] = buildServerHandler(route, plan, h)
	return nil
}

// Finalize checks that every registered route has exactly one binding and
// materializes the server artifact: an http.Handler ready to be mounted by
// any server runtime. Missing bindings fail with ErrIncompleteBinding naming
// every unbound route. The definition is frozen as a side effect.
func (impl *Implementation) Finalize() (http.Handler, error) {
	var missing []string
	for _, route := range impl.def.routes {
		if _, ok := impl.handlers[routeKey{method: route.method, path: route.path}]; !ok {
			missing = append(missing, route.String())
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: no handler for %s", ErrIncompleteBinding, strings.Join(missing, ", "))
	}

	impl.def.Freeze()
	r := chi.NewRouter()
	for _, route := range impl.def.routes {
		r.Method(route.method, route.path, impl.handlers[routeKey{method: route.method, path: route.path}])
	}
	return r, nil
}
