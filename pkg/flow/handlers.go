package flow

import (
	"context"

	"github.com/aretw0/formwork/pkg/manifest"
	"github.com/aretw0/formwork/pkg/schema"
)

// SchemaRecomputer derives the next schema from the previous one and the
// state after an accepted write.
type SchemaRecomputer interface {
	Recompute(previous schema.Schema, state State) schema.Schema
}

// RecomputeFunc adapts a function to SchemaRecomputer.
type RecomputeFunc func(previous schema.Schema, state State) schema.Schema

// Recompute calls f.
func (f RecomputeFunc) Recompute(previous schema.Schema, state State) schema.Schema {
	return f(previous, state)
}

// Completer receives the full state of a completed flow and returns an
// opaque result token, such as the identifier of a created resource.
type Completer interface {
	Complete(ctx context.Context, state State) (string, error)
}

// CompleteFunc adapts a function to Completer.
type CompleteFunc func(ctx context.Context, state State) (string, error)

// Complete calls f.
func (f CompleteFunc) Complete(ctx context.Context, state State) (string, error) {
	return f(ctx, state)
}

// ManifestRecomputer regenerates the schema from m on every update.
func ManifestRecomputer(m *manifest.Manifest) SchemaRecomputer {
	return RecomputeFunc(func(_ schema.Schema, state State) schema.Schema {
		return schema.Generate(m, state)
	})
}
