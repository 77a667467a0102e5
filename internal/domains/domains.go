// Package domains holds the glue shared by the domain modules: adapting
// typed listers to registry handlers and the cross-domain facet and
// delete features.
package domains

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/resource"
)

const (
	FeatureStateful = "stateful-resource"
	FeatureDelete   = "delete-resource"
)

// List adapts a typed lister to a registry handler. The target is ignored.
func List[T resource.Resource](l resource.Lister[T]) registry.ListFunc {
	return func(ctx context.Context, _ string) ([]resource.Summary, error) {
		items, err := l.List(ctx)
		if err != nil {
			return nil, err
		}
		return resource.Summaries(items), nil
	}
}

// Lookup finds a stateful resource by IRI.
type Lookup func(ctx context.Context, iri string) (resource.Stateful, bool)

// LookupOf adapts a typed registry to a Lookup.
func LookupOf[T resource.Stateful](r resource.Registry[T]) Lookup {
	return func(ctx context.Context, iri string) (resource.Stateful, bool) {
		item, ok := r.GetResource(ctx, iri)
		if !ok {
			return nil, false
		}
		return item, true
	}
}

// Shared collects the lookups and deleters contributed by each domain and
// registers the cross-domain features once every domain is in.
type Shared struct {
	facetTargets  []string
	lookups       []Lookup
	deleteTargets []string
	deleters      map[string]resource.Deleter
}

// NewShared creates an empty collector.
func NewShared() *Shared {
	return &Shared{deleters: make(map[string]resource.Deleter)}
}

// AddStateful makes resources of resourceType answer the stateful feature.
func (s *Shared) AddStateful(resourceType string, lookup Lookup) {
	s.facetTargets = append(s.facetTargets, resourceType)
	s.lookups = append(s.lookups, lookup)
}

// AddDeleter routes deletions of resourceType IRIs starting with prefix to d.
func (s *Shared) AddDeleter(resourceType, prefix string, d resource.Deleter) {
	s.deleteTargets = append(s.deleteTargets, resourceType)
	s.deleters[prefix] = d
}

// Register adds the stateful and delete features. invalidates names the
// cache scopes dropped after a successful delete.
func (s *Shared) Register(reg *registry.Registry, invalidates ...string) error {
	if len(s.lookups) > 0 {
		if err := reg.Register(registry.Entry{
			Feature: registry.Feature{
				ID:      FeatureStateful,
				Name:    "Resource state",
				Type:    registry.FeatureFacet,
				Targets: s.facetTargets,
			},
			Facet: s.facet,
		}); err != nil {
			return err
		}
	}

	if len(s.deleters) > 0 {
		if err := reg.Register(registry.Entry{
			Feature: registry.Feature{
				ID:      FeatureDelete,
				Name:    "Delete resource",
				Type:    registry.FeatureOperation,
				Targets: s.deleteTargets,
			},
			Operate:     s.delete,
			Invalidates: invalidates,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Shared) facet(ctx context.Context, iri string) (resource.Facet, error) {
	for _, lookup := range s.lookups {
		if item, ok := lookup(ctx, iri); ok {
			return resource.FacetOf(item), nil
		}
	}
	return resource.Facet{}, fmt.Errorf("%w: %s", resource.ErrNotFound, iri)
}

// delete routes iri to the deleter with the longest matching prefix. An
// empty prefix catches whatever no other deleter claims.
func (s *Shared) delete(ctx context.Context, iri string) error {
	prefixes := make([]string, 0, len(s.deleters))
	for prefix := range s.deleters {
		prefixes = append(prefixes, prefix)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	for _, prefix := range prefixes {
		if strings.HasPrefix(iri, prefix) {
			return s.deleters[prefix].Delete(ctx, iri)
		}
	}
	return fmt.Errorf("%w: %s", resource.ErrNotFound, iri)
}
