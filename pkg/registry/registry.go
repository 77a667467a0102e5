package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/aretw0/formwork/pkg/flow"
	"github.com/aretw0/formwork/pkg/resource"
)

var (
	// ErrUnknownFeature is returned when no feature has the requested id.
	ErrUnknownFeature = errors.New("unknown feature")
	// ErrUnknownScope is returned when no lister serves the requested scope.
	ErrUnknownScope = errors.New("unknown scope")
	// ErrInvalidFeature is returned by Register for malformed entries.
	ErrInvalidFeature = errors.New("invalid feature")
)

// FeatureType tells clients what running a feature yields.
type FeatureType string

const (
	FeatureList      FeatureType = "List"
	FeatureCreate    FeatureType = "Create"
	FeatureFacet     FeatureType = "Facet"
	FeatureOperation FeatureType = "Operation"
)

// Feature describes an action offered on resources of some types.
type Feature struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Type        FeatureType `json:"feature_type"`
	Description string      `json:"description,omitempty"`
	// Targets lists the resource types the feature applies to. An empty
	// list makes it a global feature.
	Targets []string `json:"-"`
}

// AppliesTo reports whether the feature is offered for resourceType.
// Global features apply to the empty resource type only.
func (f Feature) AppliesTo(resourceType string) bool {
	if len(f.Targets) == 0 {
		return resourceType == ""
	}
	return slices.Contains(f.Targets, resourceType)
}

type (
	// ListFunc lists resources. target is the IRI the feature runs against.
	ListFunc func(ctx context.Context, target string) ([]resource.Summary, error)
	// CreateFunc starts a flow that creates a resource when completed.
	CreateFunc func(ctx context.Context, target string) (*flow.Flow, error)
	// FacetFunc reads the lifecycle state of target.
	FacetFunc func(ctx context.Context, target string) (resource.Facet, error)
	// OperateFunc performs a side effect on target.
	OperateFunc func(ctx context.Context, target string) error
)

// Entry binds a feature to its implementation. Exactly the handler
// matching Feature.Type must be set.
type Entry struct {
	Feature

	List    ListFunc
	Create  CreateFunc
	Facet   FacetFunc
	Operate OperateFunc

	// Invalidates lists cache scope prefixes made stale when a create flow
	// completes or an operation succeeds.
	Invalidates []string
}

func (e Entry) validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidFeature)
	}
	var ok bool
	switch e.Type {
	case FeatureList:
		ok = e.List != nil
	case FeatureCreate:
		ok = e.Create != nil
	case FeatureFacet:
		ok = e.Facet != nil
	case FeatureOperation:
		ok = e.Operate != nil
	default:
		return fmt.Errorf("%w: %s has unknown type %q", ErrInvalidFeature, e.ID, e.Type)
	}
	if !ok {
		return fmt.Errorf("%w: %s has no %s handler", ErrInvalidFeature, e.ID, e.Type)
	}
	return nil
}

type scope struct {
	summary resource.Summary
	list    ListFunc
}

// Registry manages the available features and resource scopes.
type Registry struct {
	mu       sync.RWMutex
	features map[string]Entry
	scopes   map[string]scope
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		features: make(map[string]Entry),
		scopes:   make(map[string]scope),
	}
}

// Register adds a feature to the registry.
// A feature id may only be registered once.
func (r *Registry) Register(e Entry) error {
	if err := e.validate(); err != nil {
		return err
	}
	if e.Name == "" {
		e.Name = e.ID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.features[e.ID]; exists {
		return fmt.Errorf("%w: %s registered twice", ErrInvalidFeature, e.ID)
	}
	r.features[e.ID] = e
	return nil
}

// Replace adds e, overwriting any feature with the same id.
func (r *Registry) Replace(e Entry) error {
	if err := e.validate(); err != nil {
		return err
	}
	if e.Name == "" {
		e.Name = e.ID
	}

	r.mu.Lock()
	r.features[e.ID] = e
	r.mu.Unlock()
	return nil
}

// Unregister removes the feature id. It reports whether it was present.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.features[id]
	delete(r.features, id)
	return ok
}

// Lookup returns the entry for id.
func (r *Registry) Lookup(id string) (Entry, error) {
	r.mu.RLock()
	e, ok := r.features[id]
	r.mu.RUnlock()

	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownFeature, id)
	}
	return e, nil
}

// Features returns the features offered for resourceType, ordered by id.
// The empty resource type selects global features.
func (r *Registry) Features(resourceType string) []Feature {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Feature, 0)
	for _, e := range r.features {
		if e.AppliesTo(resourceType) {
			out = append(out, e.Feature)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RegisterScope makes summary a browsable root whose children are
// produced by list. The scope key is the summary IRI.
func (r *Registry) RegisterScope(summary resource.Summary, list ListFunc) error {
	if summary.IRI == "" || list == nil {
		return fmt.Errorf("%w: scope needs an iri and a lister", ErrInvalidFeature)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.scopes[summary.IRI]; exists {
		return fmt.Errorf("%w: scope %s registered twice", ErrInvalidFeature, summary.IRI)
	}
	r.scopes[summary.IRI] = scope{summary: summary, list: list}
	return nil
}

// Roots returns the summaries of every registered scope, ordered by IRI.
func (r *Registry) Roots() []resource.Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]resource.Summary, 0, len(r.scopes))
	for _, s := range r.scopes {
		out = append(out, s.summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IRI < out[j].IRI })
	return out
}

// Scope returns the lister for the scope with the given IRI.
func (r *Registry) Scope(iri string) (ListFunc, error) {
	r.mu.RLock()
	s, ok := r.scopes[iri]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScope, iri)
	}
	return s.list, nil
}
