// Package catalog browses resources and runs the features registered for
// them. Listings are served through a resource cache when one is set.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/formwork/internal/logging"
	"github.com/aretw0/formwork/pkg/flow"
	"github.com/aretw0/formwork/pkg/ports"
	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/resource"
)

// DefaultTTL is how long a listing stays cached when no TTL is configured.
const DefaultTTL = 30 * time.Second

// Result is the outcome of running a feature. Which field is set depends
// on Type.
type Result struct {
	Type      registry.FeatureType `json:"type"`
	Resources []resource.Summary   `json:"resources,omitempty"`
	Flow      *flow.Flow           `json:"-"`
	Facet     *resource.Facet      `json:"facet,omitempty"`
}

// Catalog serves resource listings and feature runs.
type Catalog struct {
	registry *registry.Registry
	cache    ports.ResourceCache
	ttl      time.Duration
	logger   *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithCache serves listings through cache. A zero ttl uses DefaultTTL.
func WithCache(cache ports.ResourceCache, ttl time.Duration) Option {
	return func(c *Catalog) {
		c.cache = cache
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a catalog over reg.
func New(reg *registry.Registry, opts ...Option) *Catalog {
	c := &Catalog{
		registry: reg,
		ttl:      DefaultTTL,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the underlying feature registry.
func (c *Catalog) Registry() *registry.Registry { return c.registry }

// Resources lists the children of scope, or the root services when scope
// is empty, keeping only summaries matching filter.
func (c *Catalog) Resources(ctx context.Context, scope, filter string) ([]resource.Summary, error) {
	f, err := resource.CompileFilter(filter)
	if err != nil {
		return nil, err
	}

	var items []resource.Summary
	if scope == "" {
		items = c.registry.Roots()
	} else {
		list, err := c.registry.Scope(scope)
		if err != nil {
			return nil, err
		}
		items, err = c.cached(ctx, scope, func(ctx context.Context) ([]resource.Summary, error) {
			return list(ctx, scope)
		})
		if err != nil {
			return nil, err
		}
	}

	return f.Apply(items)
}

// Features returns the features offered for resourceType.
func (c *Catalog) Features(resourceType string) []registry.Feature {
	return c.registry.Features(resourceType)
}

// RunFeature runs the feature id against target.
//
// Create features return a flow that has not been registered anywhere yet;
// the caller decides where it lives. Once that flow completes successfully
// the scopes named by the feature are invalidated.
func (c *Catalog) RunFeature(ctx context.Context, id, target string) (Result, error) {
	e, err := c.registry.Lookup(id)
	if err != nil {
		return Result{}, err
	}

	res := Result{Type: e.Type}
	switch e.Type {
	case registry.FeatureList:
		items, err := c.cached(ctx, FeatureScope(id, target), func(ctx context.Context) ([]resource.Summary, error) {
			return e.List(ctx, target)
		})
		if err != nil {
			return Result{}, err
		}
		res.Resources = items

	case registry.FeatureCreate:
		f, err := e.Create(ctx, target)
		if err != nil {
			return Result{}, err
		}
		f.SetOrigin(id)
		if inner := f.Completer(); inner != nil && len(e.Invalidates) > 0 {
			f.SetCompleter(c.invalidating(inner, e.Invalidates))
		}
		res.Flow = f

	case registry.FeatureFacet:
		facet, err := e.Facet(ctx, target)
		if err != nil {
			return Result{}, err
		}
		res.Facet = &facet

	case registry.FeatureOperation:
		if err := e.Operate(ctx, target); err != nil {
			return Result{}, err
		}
		c.invalidate(ctx, e.Invalidates)
	}

	return res, nil
}

// Invalidate drops cached listings whose scope starts with prefix.
func (c *Catalog) Invalidate(ctx context.Context, prefix string) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Invalidate(ctx, prefix)
}

// FeatureScope is the cache scope of a list feature run against target.
func FeatureScope(id, target string) string {
	if target == "" {
		return "feature:" + id
	}
	return "feature:" + id + ":" + target
}

func (c *Catalog) cached(ctx context.Context, scope string, load func(context.Context) ([]resource.Summary, error)) ([]resource.Summary, error) {
	if c.cache != nil {
		items, err := c.cache.Get(ctx, scope)
		if err == nil {
			return items, nil
		}
		if !errors.Is(err, ports.ErrCacheMiss) {
			c.logger.Warn("resource cache read failed", "scope", scope, "error", err)
		}
	}

	items, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, scope, items, c.ttl); err != nil {
			c.logger.Warn("resource cache write failed", "scope", scope, "error", err)
		}
	}
	return items, nil
}

func (c *Catalog) invalidating(inner flow.Completer, prefixes []string) flow.Completer {
	return flow.CompleteFunc(func(ctx context.Context, state flow.State) (string, error) {
		result, err := inner.Complete(ctx, state)
		if err == nil {
			c.invalidate(ctx, prefixes)
		}
		return result, err
	})
}

func (c *Catalog) invalidate(ctx context.Context, prefixes []string) {
	for _, p := range prefixes {
		if err := c.Invalidate(ctx, p); err != nil {
			c.logger.Warn("resource cache invalidation failed", "prefix", p, "error", err)
		}
	}
}
