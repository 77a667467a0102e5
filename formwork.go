package formwork

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/formwork/internal/catalog"
	"github.com/aretw0/formwork/internal/logging"
	"github.com/aretw0/formwork/pkg/flow"
	"github.com/aretw0/formwork/pkg/ports"
	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/resource"
	"github.com/aretw0/formwork/pkg/sanitize"
	"github.com/aretw0/formwork/pkg/schema"
	"github.com/aretw0/formwork/pkg/session"
)

// FlowSchema is the schema a client should render next.
type FlowSchema struct {
	FlowID  string        `json:"flow_id"`
	Schema  schema.Schema `json:"schema"`
	Version int           `json:"version"`
}

// FeatureResult is the outcome of RunFeature. Create features populate
// Flow; list, facet and operation features fill the matching field.
type FeatureResult struct {
	Type      registry.FeatureType `json:"type"`
	Resources []resource.Summary   `json:"resources,omitempty"`
	Flow      *FlowSchema          `json:"flow,omitempty"`
	Facet     *resource.Facet      `json:"facet,omitempty"`
}

// Engine is the transport-neutral entry point: it starts flows from
// registered features, keeps them live and completes them.
type Engine struct {
	registry  *registry.Registry
	catalog   *catalog.Catalog
	store     *session.Store
	sanitizer *sanitize.Sanitizer
	logger    *slog.Logger

	hooks    session.Hooks
	cache    ports.ResourceCache
	cacheTTL time.Duration
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHooks registers store observability hooks.
func WithHooks(hooks ...session.Hooks) Option {
	return func(e *Engine) {
		e.hooks = session.ChainHooks(append([]session.Hooks{e.hooks}, hooks...)...)
	}
}

// WithCache serves resource listings through cache for ttl.
func WithCache(cache ports.ResourceCache, ttl time.Duration) Option {
	return func(e *Engine) {
		e.cache = cache
		e.cacheTTL = ttl
	}
}

// WithMaxInputSize bounds every string value written to flow state.
func WithMaxInputSize(n int) Option {
	return func(e *Engine) {
		e.sanitizer = sanitize.New(n)
	}
}

// New creates an engine offering the features registered in reg.
func New(reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{registry: reg}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.sanitizer == nil {
		e.sanitizer = sanitize.New(0)
	}

	catOpts := []catalog.Option{catalog.WithLogger(e.logger)}
	if e.cache != nil {
		catOpts = append(catOpts, catalog.WithCache(e.cache, e.cacheTTL))
	}
	e.catalog = catalog.New(reg, catOpts...)
	e.store = session.NewStore(session.WithHooks(e.hooks), session.WithLogger(e.logger))
	return e
}

// Registry returns the feature registry.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// StartFlow runs the create feature id and registers the resulting flow.
func (e *Engine) StartFlow(ctx context.Context, featureID string) (FlowSchema, error) {
	return e.StartFlowFor(ctx, featureID, "")
}

// StartFlowFor is StartFlow with a target resource passed to the feature.
func (e *Engine) StartFlowFor(ctx context.Context, featureID, target string) (FlowSchema, error) {
	res, err := e.catalog.RunFeature(ctx, featureID, target)
	if err != nil {
		return FlowSchema{}, err
	}
	if res.Type != registry.FeatureCreate {
		return FlowSchema{}, fmt.Errorf("%w: %s is a %s feature", ErrNotCreateFeature, featureID, res.Type)
	}
	return e.register(ctx, res.Flow), nil
}

// GetFlowSchema returns the current schema and version of a live flow.
func (e *Engine) GetFlowSchema(id string) (FlowSchema, error) {
	snap, err := e.store.Get(id)
	if err != nil {
		return FlowSchema{}, err
	}
	return FlowSchema{FlowID: snap.ID, Schema: snap.Schema, Version: snap.Version}, nil
}

// GetFlowState returns a snapshot of a live flow.
func (e *Engine) GetFlowState(id string) (flow.Snapshot, error) {
	return e.store.Get(id)
}

// UpdateFlowState binds key to value on a live flow and returns the
// recomputed schema. String values are sanitized first. A non-nil version
// must match the flow's current version.
func (e *Engine) UpdateFlowState(ctx context.Context, id, key string, value any, version *int) (FlowSchema, error) {
	clean, err := e.sanitizer.Value(value)
	if err != nil {
		return FlowSchema{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	snap, err := e.store.UpdateState(ctx, id, key, clean, version)
	if err != nil {
		return FlowSchema{}, err
	}
	return FlowSchema{FlowID: snap.ID, Schema: snap.Schema, Version: snap.Version}, nil
}

// CompleteFlow removes the flow and runs its completion handler.
func (e *Engine) CompleteFlow(ctx context.Context, id string) (session.Completion, error) {
	return e.store.Complete(ctx, id)
}

// CancelFlow discards a live flow without completing it.
func (e *Engine) CancelFlow(ctx context.Context, id string) error {
	_, err := e.store.Remove(ctx, id)
	return err
}

// Flows lists the live flows.
func (e *Engine) Flows() []session.Entry {
	return e.store.List()
}

// Resources lists the children of scope, or the root services when scope
// is empty. filter is an optional boolean expression over each summary.
func (e *Engine) Resources(ctx context.Context, scope, filter string) ([]resource.Summary, error) {
	return e.catalog.Resources(ctx, scope, filter)
}

// Features returns the features offered for resourceType.
func (e *Engine) Features(resourceType string) []registry.Feature {
	return e.catalog.Features(resourceType)
}

// RunFeature runs any feature against target. Flows started by create
// features are registered and returned as schemas.
func (e *Engine) RunFeature(ctx context.Context, featureID, target string) (FeatureResult, error) {
	res, err := e.catalog.RunFeature(ctx, featureID, target)
	if err != nil {
		return FeatureResult{}, err
	}

	out := FeatureResult{Type: res.Type, Resources: res.Resources, Facet: res.Facet}
	if res.Flow != nil {
		fs := e.register(ctx, res.Flow)
		out.Flow = &fs
	}
	return out, nil
}

// Invalidate drops cached listings whose scope starts with prefix.
func (e *Engine) Invalidate(ctx context.Context, prefix string) error {
	return e.catalog.Invalidate(ctx, prefix)
}

// register snapshots f before publishing it; once stored, f may be
// updated concurrently.
func (e *Engine) register(ctx context.Context, f *flow.Flow) FlowSchema {
	snap := f.Snapshot()
	e.store.Create(ctx, f)
	return FlowSchema{FlowID: snap.ID, Schema: snap.Schema, Version: snap.Version}
}
