package restrpc

import (
	"fmt"
	"net/http"
	"reflect"
)

// supportedMethods is the full method vocabulary of a Definition.
var supportedMethods = map[string]bool{
	http.MethodDelete: true,
	http.MethodGet:    true,
	http.MethodPatch:  true,
	http.MethodPost:   true,
	http.MethodPut:    true,
}

// bodyMethods are the methods that may carry a request body.
var bodyMethods = map[string]bool{
	http.MethodPatch: true,
	http.MethodPost:  true,
	http.MethodPut:   true,
}

type routeKey struct {
	method string
	path   string
}

// Definition owns the route registry shared between server and client
// builders. It is mutable during a single-threaded build phase; Freeze ends
// that phase, after which the registry is read-only and safe for concurrent
// use without locking. Constructing a client or finalizing an implementation
// freezes the definition implicitly.
type Definition struct {
	routes []*RouteDescriptor
	index  map[routeKey]*RouteDescriptor
	frozen bool
}

// NewDefinition creates an empty route registry.
func NewDefinition() *Definition {
	return &Definition{index: make(map[routeKey]*RouteDescriptor)}
}

// Define registers a route. The parameter shape is derived from Req's struct
// tags and the return type from Resp. Registration fails with
// ErrDuplicateRoute, ErrInvalidMethod, ErrInvalidPath, or ErrInvalidParameter;
// on success the inserted RouteDescriptor is immutable.
func Define[Req, Resp any](d *Definition, method, path string) error {
	if d.frozen {
		return fmt.Errorf("%w: cannot register %s %s", ErrDefinitionFrozen, method, path)
	}
	if !supportedMethods[method] {
		return fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}

	placeholders, err := parsePathTemplate(path)
	if err != nil {
		return err
	}

	key := routeKey{method: method, path: path}
	if _, ok := d.index[key]; ok {
		return fmt.Errorf("%w: %s %s", ErrDuplicateRoute, method, path)
	}

	slots, err := slotsOf(reflect.TypeFor[Req]())
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if err := checkSlots(method, path, placeholders, slots); err != nil {
		return err
	}

	returns := reflect.TypeFor[Resp]()
	switch returns.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return fmt.Errorf("%w: %s %s: return type %s cannot be encoded", ErrInvalidParameter, method, path, returns)
	}

	route := &RouteDescriptor{
		method:       method,
		path:         path,
		slots:        paramSlots(slots),
		returns:      returns,
		placeholders: placeholders,
	}
	d.index[key] = route
	d.routes = append(d.routes, route)
	return nil
}

// Get registers a GET route.
func Get[Req, Resp any](d *Definition, path string) error {
	return Define[Req, Resp](d, http.MethodGet, path)
}

// Post registers a POST route.
func Post[Req, Resp any](d *Definition, path string) error {
	return Define[Req, Resp](d, http.MethodPost, path)
}

// Put registers a PUT route.
func Put[Req, Resp any](d *Definition, path string) error {
	return Define[Req, Resp](d, http.MethodPut, path)
}

// Patch registers a PATCH route.
func Patch[Req, Resp any](d *Definition, path string) error {
	return Define[Req, Resp](d, http.MethodPatch, path)
}

// Delete registers a DELETE route.
func Delete[Req, Resp any](d *Definition, path string) error {
	return Define[Req, Resp](d, http.MethodDelete, path)
}

// Freeze ends the build phase. Further registration fails with
// ErrDefinitionFrozen. Freezing twice is a no-op.
func (d *Definition) Freeze() { d.frozen = true }

// Routes returns the registered descriptors in insertion order.
func (d *Definition) Routes() []*RouteDescriptor {
	out := make([]*RouteDescriptor, len(d.routes))
	copy(out, d.routes)
	return out
}

// Len reports the number of registered routes.
func (d *Definition) Len() int { return len(d.routes) }

func (d *Definition) lookup(method, path string) (*RouteDescriptor, bool) {
	r, ok := d.index[routeKey{method: method, path: path}]
	return r, ok
}

// checkSlots enforces the cross-cutting parameter rules: path slots must
// cover the template placeholders exactly, at most one body slot, and bodies
// only on methods that allow them.
func checkSlots(method, path string, placeholders []string, slots []boundSlot) error {
	inPath := make(map[string]bool, len(placeholders))
	for _, name := range placeholders {
		inPath[name] = true
	}

	bodies := 0
	pathSlots := make(map[string]bool)
	for _, s := range slots {
		switch s.Kind {
		case KindPath:
			if !inPath[s.Name] {
				return fmt.Errorf("%w: %s %s: path parameter %q is not in the template", ErrInvalidParameter, method, path, s.Name)
			}
			pathSlots[s.Name] = true
		case KindBody:
			bodies++
		}
	}
	if bodies > 1 {
		return fmt.Errorf("%w: %s %s: more than one body parameter", ErrInvalidParameter, method, path)
	}
	if bodies > 0 && !bodyMethods[method] {
		return fmt.Errorf("%w: %s %s: request bodies are only supported for PATCH, POST, and PUT", ErrInvalidParameter, method, path)
	}
	for _, name := range placeholders {
		if !pathSlots[name] {
			return fmt.Errorf("%w: %s %s: placeholder {%s} has no matching parameter", ErrInvalidParameter, method, path, name)
		}
	}
	return nil
}

func paramSlots(slots []boundSlot) []ParamSlot {
	out := make([]ParamSlot, len(slots))
	for i, s := range slots {
		out[i] = s.ParamSlot
	}
	return out
}
