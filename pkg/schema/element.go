package schema

import (
	"sort"
)

// TypeString is the primitive render hint for free-text fields.
const TypeString = "string"

// Element describes one field a client may or must supply.
type Element struct {
	Name          string   `json:"name" jsonschema_description:"Resolved, user-facing prompt"`
	ResourceType  string   `json:"resource_type" jsonschema_description:"Render hint: a primitive such as string, or a resource type such as IamRole"`
	Description   string   `json:"description,omitempty"`
	Required      bool     `json:"required"`
	DefaultValue  *string  `json:"default_value,omitempty"`
	ValidOptions  []string `json:"valid_options,omitempty"`
	RelativeOrder *int     `json:"relative_order,omitempty" jsonschema_description:"Presentation order; lower first"`
}

// Clone returns a copy sharing no memory with e.
func (e Element) Clone() Element {
	out := e
	if e.DefaultValue != nil {
		v := *e.DefaultValue
		out.DefaultValue = &v
	}
	if e.RelativeOrder != nil {
		v := *e.RelativeOrder
		out.RelativeOrder = &v
	}
	if e.ValidOptions != nil {
		out.ValidOptions = append([]string(nil), e.ValidOptions...)
	}
	return out
}

// Schema maps field keys to their descriptors.
type Schema map[string]Element

// Clone deep-copies the schema.
func (s Schema) Clone() Schema {
	if s == nil {
		return nil
	}
	out := make(Schema, len(s))
	for k, v := range s {
		out[k] = v.Clone()
	}
	return out
}

// Has reports whether key is offered by the schema.
func (s Schema) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Keys returns the field keys sorted alphabetically.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Field pairs a key with its element.
type Field struct {
	Key string
	Element
}

// Ordered returns the fields in presentation order: elements with a
// relative order first (ascending), then the rest by key.
func (s Schema) Ordered() []Field {
	fields := make([]Field, 0, len(s))
	for k, v := range s {
		fields = append(fields, Field{Key: k, Element: v})
	}
	sort.SliceStable(fields, func(i, j int) bool {
		a, b := fields[i].RelativeOrder, fields[j].RelativeOrder
		switch {
		case a != nil && b != nil && *a != *b:
			return *a < *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return fields[i].Key < fields[j].Key
	})
	return fields
}

// Merge returns a new schema holding the fields of s overlaid with other.
func (s Schema) Merge(other Schema) Schema {
	out := s.Clone()
	if out == nil {
		out = make(Schema, len(other))
	}
	for k, v := range other {
		out[k] = v.Clone()
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}

// Order is a helper for setting RelativeOrder.
func Order(n int) *int { return ptr(n) }

// Default is a helper for setting DefaultValue.
func Default(v string) *string { return ptr(v) }
