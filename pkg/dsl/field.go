package dsl

import "github.com/aretw0/formwork/pkg/schema"

// FieldBuilder provides a fluent API for configuring a field.
type FieldBuilder struct {
	key     string
	element schema.Element
	builder *Builder
}

// Name sets the human readable label of the field.
func (f *FieldBuilder) Name(name string) *FieldBuilder {
	f.element.Name = name
	return f
}

// Type sets the resource type the value refers to.
func (f *FieldBuilder) Type(resourceType string) *FieldBuilder {
	f.element.ResourceType = resourceType
	return f
}

// Describe sets the field description.
func (f *FieldBuilder) Describe(description string) *FieldBuilder {
	f.element.Description = description
	return f
}

// Required marks the field as required.
func (f *FieldBuilder) Required() *FieldBuilder {
	f.element.Required = true
	return f
}

// Default sets the suggested value.
func (f *FieldBuilder) Default(value string) *FieldBuilder {
	f.element.DefaultValue = schema.Default(value)
	return f
}

// Options restricts the field to a closed set of values.
func (f *FieldBuilder) Options(options ...string) *FieldBuilder {
	f.element.ValidOptions = append([]string(nil), options...)
	return f
}

// Order overrides the position derived from insertion order.
func (f *FieldBuilder) Order(n int) *FieldBuilder {
	f.element.RelativeOrder = schema.Order(n)
	return f
}

// Add finishes this field and starts the next one.
func (f *FieldBuilder) Add(key string) *FieldBuilder {
	return f.builder.Add(key)
}

// Build finishes this field and builds the whole schema.
func (f *FieldBuilder) Build() (schema.Schema, error) {
	return f.builder.Build()
}

// MustBuild finishes this field and builds the whole schema, panicking on error.
func (f *FieldBuilder) MustBuild() schema.Schema {
	return f.builder.MustBuild()
}

// Element returns the element as configured so far.
func (f *FieldBuilder) Element() schema.Element {
	return f.element.Clone()
}
