package restrpc

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind classifies how a parameter travels on the wire. It is fixed when the
// route is declared and never changes.
type Kind int

const (
	KindPath Kind = iota
	KindQuery
	KindHeader
	KindBody
)

func (k Kind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindQuery:
		return "query"
	case KindHeader:
		return "header"
	case KindBody:
		return "body"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParamSlot describes one typed parameter of a route: its wire name, kind,
// value type, and optional default. Alias, Title, Description, and Deprecated
// are presentation metadata with no effect on matching or dispatch.
type ParamSlot struct {
	Name       string
	Kind       Kind
	Type       reflect.Type
	Default    string // raw literal from the default tag
	HasDefault bool

	Alias       string
	Title       string
	Description string
	Deprecated  bool
}

// matches reports whether two slots agree on everything a handler must
// reproduce: name, kind, value type, and default. Presentation metadata is
// not compared.
func (s ParamSlot) matches(o ParamSlot) bool {
	return s.Name == o.Name &&
		s.Kind == o.Kind &&
		typesEqual(s.Type, o.Type) &&
		s.HasDefault == o.HasDefault &&
		s.Default == o.Default
}

// headerName returns the wire name of a header slot: the alias when one is
// set, the slot name otherwise.
func (s ParamSlot) headerName() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Name
}

// RouteDescriptor is the immutable record of one endpoint's shape. It is
// created at registration and owned by its Definition from then on.
type RouteDescriptor struct {
	method       string
	path         string
	slots        []ParamSlot
	returns      reflect.Type
	placeholders []string
}

// Method returns the HTTP method.
func (r *RouteDescriptor) Method() string { return r.method }

// Path returns the path template.
func (r *RouteDescriptor) Path() string { return r.path }

// Returns reports the declared return type.
func (r *RouteDescriptor) Returns() reflect.Type { return r.returns }

// Slots returns a copy of the parameter slots in declaration order.
func (r *RouteDescriptor) Slots() []ParamSlot {
	out := make([]ParamSlot, len(r.slots))
	copy(out, r.slots)
	return out
}

// String returns the route identity used in error messages.
func (r *RouteDescriptor) String() string { return r.method + " " + r.path }

// parsePathTemplate validates a path template and returns its placeholder
// names in order of appearance.
func parsePathTemplate(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("%w: %q does not start with /", ErrInvalidPath, path)
	}

	var names []string
	seen := make(map[string]bool)
	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '{':
			end := strings.IndexByte(path[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: %q has an unclosed placeholder", ErrInvalidPath, path)
			}
			name := path[i+1 : i+end]
			if name == "" {
				return nil, fmt.Errorf("%w: %q has an empty placeholder", ErrInvalidPath, path)
			}
			if strings.ContainsAny(name, "/{") {
				return nil, fmt.Errorf("%w: %q has a malformed placeholder %q", ErrInvalidPath, path, name)
			}
			if seen[name] {
				return nil, fmt.Errorf("%w: %q repeats placeholder %q", ErrInvalidPath, path, name)
			}
			seen[name] = true
			names = append(names, name)
			i += end
		case '}':
			return nil, fmt.Errorf("%w: %q has an unmatched }", ErrInvalidPath, path)
		}
	}
	return names, nil
}
