package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/formwork/internal/logging"
	"github.com/aretw0/formwork/pkg/flow"
	"github.com/aretw0/formwork/pkg/schema"
)

// ErrNotFound is returned when no live flow has the requested id.
var ErrNotFound = errors.New("flow not found")

// Entry is a lightweight description of a live flow.
type Entry struct {
	ID      string `json:"id"`
	Origin  string `json:"origin,omitempty"`
	Version int    `json:"version"`
}

// Completion is the outcome of completing a flow.
type Completion struct {
	FlowID    string `json:"flow_id"`
	Origin    string `json:"origin,omitempty"`
	Result    string `json:"result,omitempty"`
	HasResult bool   `json:"has_result"`
}

// Store holds live flows keyed by id.
type Store struct {
	mu    sync.Mutex
	flows map[string]*flow.Flow

	hooks  Hooks
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithHooks registers observability hooks.
func WithHooks(hooks Hooks) Option {
	return func(s *Store) {
		s.hooks = hooks
	}
}

// WithLogger configures a logger for the Store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		flows:  make(map[string]*flow.Flow),
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers f and returns its id. Registering a flow whose id is
// already live replaces the previous entry.
func (s *Store) Create(ctx context.Context, f *flow.Flow) string {
	s.mu.Lock()
	s.flows[f.ID()] = f
	entry := entryOf(f)
	s.mu.Unlock()

	s.logger.Debug("Flow created", "flow_id", entry.ID, "origin", entry.Origin)
	if s.hooks.OnCreate != nil {
		s.hooks.OnCreate(ctx, entry)
	}
	return entry.ID
}

// Get returns a snapshot of the flow.
func (s *Store) Get(id string) (flow.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flows[id]
	if !ok {
		return flow.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return f.Snapshot(), nil
}

// Update runs fn against the live flow while holding the store lock and
// returns a snapshot taken after fn. fn must not retain the flow.
func (s *Store) Update(id string, fn func(*flow.Flow) error) (flow.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flows[id]
	if !ok {
		return flow.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := fn(f); err != nil {
		return f.Snapshot(), err
	}
	return f.Snapshot(), nil
}

// UpdateState binds key to value on the flow. When version is non-nil the
// update is rejected with flow.ErrStale unless it matches the flow's
// current schema version.
func (s *Store) UpdateState(ctx context.Context, id, key string, value any, version *int) (flow.Snapshot, error) {
	var previous schema.Schema
	snap, err := s.Update(id, func(f *flow.Flow) error {
		previous = f.Schema()
		if version != nil {
			return f.UpdateStateAt(*version, key, value)
		}
		return f.UpdateState(key, value)
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Debug("Update rejected", "flow_id", id, "key", key, "err", err)
			if s.hooks.OnReject != nil {
				s.hooks.OnReject(ctx, RejectEvent{FlowID: id, Key: key, Err: err})
			}
		}
		return snap, err
	}

	if s.hooks.OnUpdate != nil {
		delta := schema.Diff(previous, snap.Schema)
		if delta != nil {
			delta.FlowID = id
			delta.Version = snap.Version
		}
		s.hooks.OnUpdate(ctx, UpdateEvent{
			FlowID:  id,
			Origin:  snap.Origin,
			Key:     key,
			Version: snap.Version,
			Delta:   delta,
		})
	}
	return snap, nil
}

// Remove detaches the flow from the store and hands it to the caller.
func (s *Store) Remove(ctx context.Context, id string) (*flow.Flow, error) {
	s.mu.Lock()
	f, ok := s.flows[id]
	if ok {
		delete(s.flows, id)
	}
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if s.hooks.OnRemove != nil {
		s.hooks.OnRemove(ctx, entryOf(f))
	}
	return f, nil
}

// Complete removes the flow and runs its completion handler. The handler
// runs after the lock is released; concurrent lookups of the id fail with
// ErrNotFound from the moment Complete takes the entry.
func (s *Store) Complete(ctx context.Context, id string) (Completion, error) {
	s.mu.Lock()
	f, ok := s.flows[id]
	if ok {
		delete(s.flows, id)
	}
	s.mu.Unlock()

	if !ok {
		return Completion{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	start := s.now()
	result, has, err := f.Complete(ctx)
	out := Completion{
		FlowID:    f.ID(),
		Origin:    f.Origin(),
		Result:    result,
		HasResult: has,
	}

	if err != nil {
		s.logger.Warn("Flow completion failed", "flow_id", id, "origin", out.Origin, "err", err)
	} else {
		s.logger.Info("Flow completed", "flow_id", id, "origin", out.Origin, "has_result", has)
	}
	if s.hooks.OnComplete != nil {
		s.hooks.OnComplete(ctx, CompleteEvent{Completion: out, Duration: s.now().Sub(start), Err: err})
	}

	if err != nil {
		return out, fmt.Errorf("complete flow %s: %w", id, err)
	}
	return out, nil
}

// List returns the live flows ordered by id.
func (s *Store) List() []Entry {
	s.mu.Lock()
	out := make([]Entry, 0, len(s.flows))
	for _, f := range s.flows {
		out = append(out, entryOf(f))
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of live flows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.flows)
}

func entryOf(f *flow.Flow) Entry {
	return Entry{ID: f.ID(), Origin: f.Origin(), Version: f.Version()}
}
