package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/formwork/pkg/schema"
)

var (
	ErrEmptyKey     = errors.New("field key is empty")
	ErrDuplicateKey = errors.New("field defined twice")
)

// Builder manages the schema construction.
type Builder struct {
	fields []*FieldBuilder
	index  map[string]*FieldBuilder
	errs   []error
}

// New creates a new schema builder.
func New() *Builder {
	return &Builder{
		index: make(map[string]*FieldBuilder),
	}
}

// Add starts a new field. Adding a key twice is reported by Build.
func (b *Builder) Add(key string) *FieldBuilder {
	fb := &FieldBuilder{
		key:     key,
		builder: b,
		element: schema.Element{
			Name:         key,
			ResourceType: schema.TypeString,
		},
	}
	switch {
	case key == "":
		b.errs = append(b.errs, ErrEmptyKey)
	case b.index[key] != nil:
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrDuplicateKey, key))
	default:
		b.index[key] = fb
		b.fields = append(b.fields, fb)
	}
	return fb
}

// Build compiles the fields into a Schema.
func (b *Builder) Build() (schema.Schema, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("failed to build schema: %w", errors.Join(b.errs...))
	}

	out := make(schema.Schema, len(b.fields))
	for i, fb := range b.fields {
		el := fb.element.Clone()
		if el.RelativeOrder == nil {
			el.RelativeOrder = schema.Order(i + 1)
		}
		out[fb.key] = el
	}
	return out, nil
}

// MustBuild is like Build but panics on error. It is meant for package
// level schemas whose fields are fixed at compile time.
func (b *Builder) MustBuild() schema.Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
