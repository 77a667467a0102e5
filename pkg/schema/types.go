package schema

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// Type checks a single state value. Completion handlers use types to check
// the untyped flow state before handing it to an adapter.
type Type interface {
	// Name returns the type name used in definitions (e.g. "string", "[int]").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

type stringType struct{}

func (stringType) Name() string { return "string" }

func (stringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

type intType struct{}

func (intType) Name() string { return "int" }

func (intType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return nil
	case float64:
		// JSON numbers decode as float64.
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float (not a whole number)")
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

type floatType struct{}

func (floatType) Name() string { return "float" }

func (floatType) Validate(value any) error {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64:
		return nil
	default:
		return fmt.Errorf("expected float, got %T", value)
	}
}

type boolType struct{}

func (boolType) Name() string { return "bool" }

func (boolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

type sliceType struct {
	elem Type
}

func (t sliceType) Name() string { return "[" + t.elem.Name() + "]" }

func (t sliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

type oneOfType struct {
	options []string
}

func (t oneOfType) Name() string { return "string" }

func (t oneOfType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if !slices.Contains(t.options, s) {
		return fmt.Errorf("%q is not one of %s", s, strings.Join(t.options, ", "))
	}
	return nil
}

// referenceType accepts identifiers of a resource kind, e.g. "aws:ec2/image/ami-1".
type referenceType struct {
	resourceType string
	prefix       string
}

func (t referenceType) Name() string { return t.resourceType }

func (t referenceType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected %s identifier, got %T", t.resourceType, value)
	}
	if s == "" {
		return fmt.Errorf("expected %s identifier, got empty string", t.resourceType)
	}
	if t.prefix != "" && !strings.HasPrefix(s, t.prefix) {
		return fmt.Errorf("expected %s identifier starting with %q", t.resourceType, t.prefix)
	}
	return nil
}

type optionalType struct {
	Type
}

type customType struct {
	name     string
	validate func(any) error
}

func (t customType) Name() string { return t.name }

func (t customType) Validate(value any) error { return t.validate(value) }

// String accepts string values.
func String() Type { return stringType{} }

// Int accepts integers, including whole JSON numbers.
func Int() Type { return intType{} }

// Float accepts any number.
func Float() Type { return floatType{} }

// Bool accepts booleans.
func Bool() Type { return boolType{} }

// Slice accepts slices whose elements all satisfy elem.
func Slice(elem Type) Type { return sliceType{elem: elem} }

// OneOf accepts one of the given strings.
func OneOf(options ...string) Type { return oneOfType{options: options} }

// Reference accepts non-empty identifiers of resourceType, optionally
// requiring a prefix.
func Reference(resourceType, prefix string) Type {
	return referenceType{resourceType: resourceType, prefix: prefix}
}

// Optional marks a contract field that may be absent. Present values must
// still satisfy t.
func Optional(t Type) Type { return optionalType{Type: t} }

// Custom wraps a validation function.
func Custom(name string, validate func(any) error) Type {
	return customType{name: name, validate: validate}
}

// ParseType converts a type name to a Type. It supports the primitive names
// and slice notation such as "[string]".
func ParseType(typeStr string) (Type, error) {
	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elem, err := ParseType(typeStr[1 : len(typeStr)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elem), nil
	}

	switch typeStr {
	case "string", "":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// ParseTypeMap converts a map of field names to type names into a Contract.
func ParseTypeMap(typeMap map[string]string) (Contract, error) {
	result := make(Contract, len(typeMap))
	for key, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}
