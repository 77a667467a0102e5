package resource

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no resource has the requested identifier.
var ErrNotFound = errors.New("resource not found")

// Summary is the transport-neutral description of one resource.
type Summary struct {
	Name         string            `json:"name" expr:"name"`
	IRI          string            `json:"iri" expr:"iri"`
	ResourceType string            `json:"resource_type" expr:"resource_type"`
	Description  string            `json:"description,omitempty" expr:"description"`
	Detail       map[string]string `json:"detail,omitempty" expr:"detail"`
}

// Resource is anything that can describe itself.
type Resource interface {
	Summary() Summary
}

// Lister returns the currently known instances of a resource kind.
type Lister[T any] interface {
	List(ctx context.Context) ([]T, error)
}

// Creator provisions a new resource from keyed string values.
type Creator[T any] interface {
	Create(ctx context.Context, input map[string]string) (T, error)
}

// Registry looks up a previously listed or created resource by identifier.
type Registry[T any] interface {
	GetResource(ctx context.Context, iri string) (T, bool)
}

// Deleter removes a resource by identifier.
type Deleter interface {
	Delete(ctx context.Context, iri string) error
}

// Stateful exposes a human-readable lifecycle state. A transient state is
// expected to change without external action.
type Stateful interface {
	State() string
	IsTransient() bool
}

// Facet is the serialisable view of a Stateful resource.
type Facet struct {
	State     string `json:"state"`
	Transient bool   `json:"transient"`
}

// FacetOf captures the current state of s.
func FacetOf(s Stateful) Facet {
	return Facet{State: s.State(), Transient: s.IsTransient()}
}

// Summaries converts resources to summaries.
func Summaries[T Resource](items []T) []Summary {
	out := make([]Summary, 0, len(items))
	for _, item := range items {
		out = append(out, item.Summary())
	}
	return out
}

// ListerFunc adapts a function to Lister.
type ListerFunc[T any] func(ctx context.Context) ([]T, error)

// List calls f.
func (f ListerFunc[T]) List(ctx context.Context) ([]T, error) { return f(ctx) }
