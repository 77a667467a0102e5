package session

import (
	"context"
	"time"

	"github.com/aretw0/formwork/pkg/schema"
)

// UpdateEvent describes one accepted state update.
type UpdateEvent struct {
	FlowID  string
	Origin  string
	Key     string
	Version int
	// Delta is nil when the schema did not change.
	Delta *schema.Delta
}

// RejectEvent describes an update the flow refused.
type RejectEvent struct {
	FlowID string
	Key    string
	Err    error
}

// CompleteEvent describes a finished completion, successful or not.
type CompleteEvent struct {
	Completion
	Duration time.Duration
	Err      error
}

// Hooks defines callbacks for store observability. Hooks run outside the
// store lock and must not call back into the store synchronously.
type Hooks struct {
	OnCreate   func(context.Context, Entry)
	OnUpdate   func(context.Context, UpdateEvent)
	OnReject   func(context.Context, RejectEvent)
	OnComplete func(context.Context, CompleteEvent)
	OnRemove   func(context.Context, Entry)
}

// ChainHooks combines hooks so each callback runs every non-nil
// counterpart in order.
func ChainHooks(hooks ...Hooks) Hooks {
	var out Hooks
	for _, h := range hooks {
		out.OnCreate = chain(out.OnCreate, h.OnCreate)
		out.OnUpdate = chain(out.OnUpdate, h.OnUpdate)
		out.OnReject = chain(out.OnReject, h.OnReject)
		out.OnComplete = chain(out.OnComplete, h.OnComplete)
		out.OnRemove = chain(out.OnRemove, h.OnRemove)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
