package restrpc

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Void is used as a type parameter when a route takes no parameters or
// returns no body.
type Void struct{}

var voidType = reflect.TypeFor[Void]()

// boundSlot pairs a ParamSlot with the struct field it was derived from, so
// callers can read and write the field without re-walking tags.
type boundSlot struct {
	ParamSlot
	index []int
}

// slotsOf derives parameter slots from a request struct type. Fields tagged
// path, query, or header become slots of that kind; a field named Body
// becomes the body slot; an untagged field is treated as an implicitly
// annotated path parameter named after the field. Anything else is an
// ErrInvalidParameter.
func slotsOf(t reflect.Type) ([]boundSlot, error) {
	if t == voidType {
		return nil, nil
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: request type %s is not a struct", ErrInvalidParameter, t)
	}

	var slots []boundSlot
	seen := make(map[string]bool)
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		slot, err := slotOf(f)
		if err != nil {
			return nil, err
		}
		if seen[slot.Name] {
			return nil, fmt.Errorf("%w: duplicate parameter %q", ErrInvalidParameter, slot.Name)
		}
		seen[slot.Name] = true
		slot.index = f.Index
		slots = append(slots, slot)
	}
	return slots, nil
}

// slotOf derives a single slot from a struct field.
func slotOf(f reflect.StructField) (boundSlot, error) {
	var (
		kind  Kind
		name  string
		tags  int
		found = func(k Kind, n string) {
			kind, name = k, n
			tags++
		}
	)
	if v, ok := f.Tag.Lookup("path"); ok {
		found(KindPath, v)
	}
	if v, ok := f.Tag.Lookup("query"); ok {
		found(KindQuery, v)
	}
	if v, ok := f.Tag.Lookup("header"); ok {
		found(KindHeader, v)
	}
	if tags > 1 {
		return boundSlot{}, fmt.Errorf("%w: field %s has more than one parameter tag", ErrInvalidParameter, f.Name)
	}

	if tags == 0 {
		if f.Name == "Body" {
			kind, name = KindBody, "body"
		} else {
			// Only path parameters may be left unannotated; registration
			// checks the inferred name against the path template.
			kind, name = KindPath, snakeCase(f.Name)
		}
	}
	if name == "" {
		return boundSlot{}, fmt.Errorf("%w: field %s has an empty parameter name", ErrInvalidParameter, f.Name)
	}

	slot := boundSlot{ParamSlot: ParamSlot{
		Name:        name,
		Kind:        kind,
		Type:        f.Type,
		Alias:       f.Tag.Get("alias"),
		Title:       f.Tag.Get("title"),
		Description: f.Tag.Get("desc"),
		Deprecated:  f.Tag.Get("deprecated") == "true",
	}}

	if kind != KindBody && !scalarType(f.Type) {
		return boundSlot{}, fmt.Errorf("%w: %s parameter %q has unsupported type %s", ErrInvalidParameter, kind, name, f.Type)
	}

	if def, ok := f.Tag.Lookup("default"); ok {
		if kind == KindPath {
			return boundSlot{}, fmt.Errorf("%w: path parameter %q cannot have a default", ErrInvalidParameter, name)
		}
		if kind == KindBody {
			return boundSlot{}, fmt.Errorf("%w: body parameter cannot have a default", ErrInvalidParameter)
		}
		// Defaults are validated against the value type here, at definition
		// time. Call-time arguments are the caller's typed values already.
		if def != "" {
			if _, err := parseValue(f.Type, def); err != nil {
				return boundSlot{}, fmt.Errorf("%w: default %q is not a valid %s for parameter %q", ErrInvalidParameter, def, f.Type, name)
			}
		}
		slot.Default = def
		slot.HasDefault = true
	}
	return slot, nil
}

// scalarType reports whether a type can travel as a path, query, or header
// value.
func scalarType(t reflect.Type) bool {
	if t == reflect.TypeFor[time.Duration]() {
		return true
	}
	switch t.Kind() {
	case reflect.String, reflect.Int, reflect.Int64, reflect.Float64, reflect.Bool:
		return true
	default:
		return false
	}
}

// parseValue parses a string into a value of type t. Supports the same set
// of types as formatValue.
func parseValue(t reflect.Type, value string) (reflect.Value, error) {
	v := reflect.New(t).Elem()
	if t == reflect.TypeFor[time.Duration]() {
		d, err := time.ParseDuration(value)
		if err != nil {
			return v, err
		}
		v.Set(reflect.ValueOf(d))
		return v, nil
	}

	switch t.Kind() {
	case reflect.String:
		v.SetString(value)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return v, err
		}
		v.SetInt(n)
	case reflect.Float64:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return v, err
		}
		v.SetFloat(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return v, err
		}
		v.SetBool(b)
	default:
		return v, fmt.Errorf("unsupported type: %s", t)
	}
	return v, nil
}

// formatValue renders a scalar parameter value for the wire.
func formatValue(v reflect.Value) string {
	if v.Type() == reflect.TypeFor[time.Duration]() {
		return v.Interface().(time.Duration).String()
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	default:
		return fmt.Sprint(v.Interface())
	}
}

// typesEqual reports structural equality of two types: identical types are
// equal, and independently declared structs are equal when their exported
// fields agree on JSON name and type. This lets a handler declare its own
// request and response types without sharing declarations with the route.
func typesEqual(a, b reflect.Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind() != b.Kind() {
		return false
	}

	switch a.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array:
		if a.Kind() == reflect.Array && a.Len() != b.Len() {
			return false
		}
		return typesEqual(a.Elem(), b.Elem())
	case reflect.Map:
		return typesEqual(a.Key(), b.Key()) && typesEqual(a.Elem(), b.Elem())
	case reflect.Struct:
		af, bf := jsonFields(a), jsonFields(b)
		if len(af) != len(bf) {
			return false
		}
		for name, at := range af {
			bt, ok := bf[name]
			if !ok || !typesEqual(at, bt) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// jsonFields maps the exported fields of a struct type by their JSON name.
func jsonFields(t reflect.Type) map[string]reflect.Type {
	fields := make(map[string]reflect.Type, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			tag, _, _ = strings.Cut(tag, ",")
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		fields[name] = f.Type
	}
	return fields
}

// matchSlots compares a handler's derived slots against a route's declared
// slots, order-independent. The returned error names the first mismatch.
func matchSlots(route *RouteDescriptor, got []boundSlot) error {
	declared := make(map[string]ParamSlot, len(route.slots))
	for _, s := range route.slots {
		declared[s.Name] = s
	}

	for _, g := range got {
		want, ok := declared[g.Name]
		if !ok {
			return fmt.Errorf("%w: %s: parameter %q is not declared by the route", ErrSignatureMismatch, route, g.Name)
		}
		if !want.matches(g.ParamSlot) {
			return fmt.Errorf("%w: %s: parameter %q declared as %s %s (default %q), got %s %s (default %q)",
				ErrSignatureMismatch, route,
				g.Name, want.Kind, want.Type, want.Default, g.Kind, g.Type, g.Default)
		}
		delete(declared, g.Name)
	}
	for name := range declared {
		return fmt.Errorf("%w: %s: parameter %q is declared by the route but missing", ErrSignatureMismatch, route, name)
	}
	return nil
}

// snakeCase converts a Go field name to its wire spelling: ItemID → item_id.
func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
