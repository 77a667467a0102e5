package flow

import (
	"context"
	"fmt"

	"github.com/aretw0/formwork/pkg/manifest"
	"github.com/aretw0/formwork/pkg/schema"
	"github.com/google/uuid"
)

// InitialVersion is the schema version of a freshly created flow.
const InitialVersion = 1

// Flow tracks the schema and state of one multi-step operation.
type Flow struct {
	id      string
	origin  string
	version int

	schema schema.Schema
	state  State

	recomputer SchemaRecomputer
	completer  Completer
	completed  bool
}

// Snapshot is a read-only copy of a flow at one point in time.
type Snapshot struct {
	ID      string        `json:"id"`
	Origin  string        `json:"origin,omitempty"`
	Version int           `json:"version"`
	Schema  schema.Schema `json:"schema"`
	State   State         `json:"state"`
}

// New creates a flow offering the given static schema.
func New(s schema.Schema, opts ...Option) *Flow {
	if s == nil {
		s = make(schema.Schema)
	}
	f := &Flow{
		id:      uuid.NewString(),
		version: InitialVersion,
		schema:  s.Clone(),
		state:   make(State),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FromManifest creates a flow whose schema is generated from m and
// regenerated after every update. Options run after the manifest recomputer
// is attached, so WithRecomputer replaces it.
func FromManifest(m *manifest.Manifest, opts ...Option) *Flow {
	f := New(nil, append([]Option{WithRecomputer(ManifestRecomputer(m))}, opts...)...)
	if f.recomputer != nil {
		f.schema = f.recomputer.Recompute(nil, f.state.Clone())
	}
	return f
}

// ID returns the flow identifier.
func (f *Flow) ID() string { return f.id }

// Origin returns the feature that started the flow, if recorded.
func (f *Flow) Origin() string { return f.origin }

// Version returns the current schema version.
func (f *Flow) Version() int { return f.version }

// Completed reports whether Complete has been called.
func (f *Flow) Completed() bool { return f.completed }

// Schema returns a copy of the current schema.
func (f *Flow) Schema() schema.Schema { return f.schema.Clone() }

// State returns a copy of the current state.
func (f *Flow) State() State { return f.state.Clone() }

// Snapshot copies the flow's observable fields.
func (f *Flow) Snapshot() Snapshot {
	return Snapshot{
		ID:      f.id,
		Origin:  f.origin,
		Version: f.version,
		Schema:  f.Schema(),
		State:   f.State(),
	}
}

// SetRecomputer attaches a schema recomputer and returns f.
func (f *Flow) SetRecomputer(r SchemaRecomputer) *Flow {
	f.recomputer = r
	return f
}

// SetCompleter attaches a completion handler and returns f.
func (f *Flow) SetCompleter(c Completer) *Flow {
	f.completer = c
	return f
}

// Completer returns the attached completion handler, or nil.
func (f *Flow) Completer() Completer { return f.completer }

// SetOrigin records the feature that started the flow and returns f.
func (f *Flow) SetOrigin(origin string) *Flow {
	f.origin = origin
	return f
}

// UpdateState binds key to value. The key must be offered by the current
// schema; otherwise ErrInvalidField is returned and the state is untouched.
// After the write the schema is recomputed from the previous schema and the
// new state, and the version advances.
func (f *Flow) UpdateState(key string, value any) error {
	if f.completed {
		return ErrCompleted
	}
	if !f.schema.Has(key) {
		return fmt.Errorf("%w: %q", ErrInvalidField, key)
	}

	f.state[key] = cloneValue(value)

	if f.recomputer != nil {
		next := f.recomputer.Recompute(f.schema.Clone(), f.state.Clone())
		if next == nil {
			next = make(schema.Schema)
		}
		f.schema = next
	}
	f.version++
	return nil
}

// UpdateStateAt is UpdateState guarded by the schema version the caller
// observed. A mismatch returns ErrStale without touching the state.
func (f *Flow) UpdateStateAt(version int, key string, value any) error {
	if f.completed {
		return ErrCompleted
	}
	if version != f.version {
		return fmt.Errorf("%w: have %d, got %d", ErrStale, f.version, version)
	}
	return f.UpdateState(key, value)
}

// Complete consumes the flow. With a completer attached it returns the
// handler's result and ok=true; without one it returns ok=false and no
// error. Any later call returns ErrCompleted.
func (f *Flow) Complete(ctx context.Context) (string, bool, error) {
	if f.completed {
		return "", false, ErrCompleted
	}
	f.completed = true

	if f.completer == nil {
		return "", false, nil
	}

	result, err := f.completer.Complete(ctx, f.state.Clone())
	if err != nil {
		return "", false, err
	}
	return result, true, nil
}
