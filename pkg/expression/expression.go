package expression

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Separator joins resolved key path segments into a state key.
const Separator = "."

// Element is one segment of a key path: either a literal string or a
// reference to the value currently bound to another field.
type Element struct {
	text    string
	valueOf string
	isRef   bool
}

// Segment creates a literal key path element.
func Segment(s string) Element {
	return Element{text: s}
}

// ValueOf creates a key path element that substitutes the value bound to key.
func ValueOf(key string) Element {
	return Element{valueOf: key, isRef: true}
}

// IsValueOf reports whether the element is a field reference.
func (e Element) IsValueOf() bool { return e.isRef }

// Key returns the referenced field key for ValueOf elements.
func (e Element) Key() string { return e.valueOf }

// Text returns the literal text for Segment elements.
func (e Element) Text() string { return e.text }

func (e Element) resolve(state map[string]any) (string, bool) {
	if !e.isRef {
		return e.text, true
	}
	v, ok := state[e.valueOf]
	if !ok {
		return "", false
	}
	return Stringify(v)
}

// Expression is either a literal string or a reference whose key path is
// resolved against state.
type Expression struct {
	literal string
	path    []Element
	isRef   bool
}

// Literal creates an expression that always resolves to s.
func Literal(s string) Expression {
	return Expression{literal: s}
}

// Reference creates an expression that resolves path against state.
func Reference(path ...Element) Expression {
	p := make([]Element, len(path))
	copy(p, path)
	return Expression{path: p, isRef: true}
}

// IsReference reports whether the expression is a key path reference.
func (x Expression) IsReference() bool { return x.isRef }

// Path returns a copy of the reference key path.
func (x Expression) Path() []Element {
	p := make([]Element, len(x.path))
	copy(p, x.path)
	return p
}

// String renders the expression for logs and error messages.
func (x Expression) String() string {
	if !x.isRef {
		return strconv.Quote(x.literal)
	}
	parts := make([]string, len(x.path))
	for i, el := range x.path {
		if el.isRef {
			parts[i] = "${" + el.valueOf + "}"
		} else {
			parts[i] = el.text
		}
	}
	return "ref(" + strings.Join(parts, Separator) + ")"
}

// Resolve evaluates x against state.
//
// A literal always resolves. A reference resolves each path element,
// joins them with Separator and looks the result up in state. If any
// ValueOf element is unbound, or the joined key is absent, the result is
// ("", false). Resolution never fails with an error.
func Resolve(x Expression, state map[string]any) (string, bool) {
	if !x.isRef {
		return x.literal, true
	}
	key, ok := ResolveKey(x, state)
	if !ok {
		return "", false
	}
	v, ok := state[key]
	if !ok {
		return "", false
	}
	return Stringify(v)
}

// ResolveKey resolves only the key path of a reference, without the final
// lookup. Literals return their own text.
func ResolveKey(x Expression, state map[string]any) (string, bool) {
	if !x.isRef {
		return x.literal, true
	}
	parts := make([]string, 0, len(x.path))
	for _, el := range x.path {
		s, ok := el.resolve(state)
		if !ok {
			return "", false
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, Separator), true
}

// Dependencies lists the field keys a reference reads through ValueOf.
func Dependencies(x Expression) []string {
	var deps []string
	for _, el := range x.path {
		if el.isRef {
			deps = append(deps, el.valueOf)
		}
	}
	return deps
}

// Stringify renders a scalar state value as text. Strings are returned
// verbatim, numbers and booleans in their canonical form. Lists, objects and
// nil have no textual value.
func Stringify(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case int:
		return strconv.Itoa(val), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case uint:
		return strconv.FormatUint(uint64(val), 10), true
	case uint64:
		return strconv.FormatUint(val, 10), true
	case json.Number:
		return val.String(), true
	default:
		return "", false
	}
}
