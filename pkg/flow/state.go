package flow

import (
	"sort"

	"github.com/aretw0/formwork/pkg/expression"
)

// State holds the values a client has submitted, keyed by field.
type State map[string]any

// Clone returns a deep copy. Nested maps and slices are copied so a snapshot
// never aliases the live state.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}

// Keys returns the bound keys sorted alphabetically.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns the value bound to key when it is a string.
func (s State) String(key string) (string, bool) {
	v, ok := s[key].(string)
	return v, ok
}

// Strings converts every scalar value to its string form, dropping lists
// and objects. It is the shape resource creators consume.
func (s State) Strings() map[string]string {
	out := make(map[string]string, len(s))
	for k, v := range s {
		if str, ok := expression.Stringify(v); ok {
			out[k] = str
		}
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case []any:
		l := make([]any, len(t))
		for i, vv := range t {
			l[i] = cloneValue(vv)
		}
		return l
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
