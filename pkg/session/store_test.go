package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/formwork/pkg/flow"
	"github.com/aretw0/formwork/pkg/schema"
	"github.com/aretw0/formwork/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nameSchema() schema.Schema {
	return schema.Schema{"name": {Name: "Name", ResourceType: schema.TypeString, Required: true}}
}

func TestStore_CreateGetRemove(t *testing.T) {
	ctx := context.Background()
	store := session.NewStore()

	id := store.Create(ctx, flow.New(nameSchema(), flow.WithOrigin("demo")))
	assert.Equal(t, 1, store.Len())

	snap, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, snap.ID)
	assert.Equal(t, "demo", snap.Origin)
	assert.True(t, snap.Schema.Has("name"))

	entries := store.List()
	require.Len(t, entries, 1)
	assert.Equal(t, session.Entry{ID: id, Origin: "demo", Version: 1}, entries[0])

	f, err := store.Remove(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, f.ID())

	_, err = store.Get(id)
	assert.ErrorIs(t, err, session.ErrNotFound)
	_, err = store.Remove(ctx, id)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStore_UpdateState(t *testing.T) {
	ctx := context.Background()

	var updates []session.UpdateEvent
	var rejects []session.RejectEvent
	store := session.NewStore(session.WithHooks(session.Hooks{
		OnUpdate: func(_ context.Context, e session.UpdateEvent) { updates = append(updates, e) },
		OnReject: func(_ context.Context, e session.RejectEvent) { rejects = append(rejects, e) },
	}))

	f := flow.New(nameSchema()).SetRecomputer(flow.RecomputeFunc(
		func(schema.Schema, flow.State) schema.Schema {
			return schema.Schema{"region": {Name: "Region", ResourceType: "Region"}}
		}))
	id := store.Create(ctx, f)

	t.Run("Unknown flow", func(t *testing.T) {
		_, err := store.UpdateState(ctx, "nope", "name", "x", nil)
		assert.ErrorIs(t, err, session.ErrNotFound)
		assert.Empty(t, rejects, "missing flows are not reported as rejections")
	})

	t.Run("Invalid field", func(t *testing.T) {
		_, err := store.UpdateState(ctx, id, "region", "x", nil)
		assert.ErrorIs(t, err, flow.ErrInvalidField)
		require.Len(t, rejects, 1)
		assert.Equal(t, "region", rejects[0].Key)
	})

	t.Run("Accepted update reports delta", func(t *testing.T) {
		version := 1
		snap, err := store.UpdateState(ctx, id, "name", "web", &version)
		require.NoError(t, err)
		assert.Equal(t, 2, snap.Version)
		assert.Equal(t, "web", snap.State["name"])

		require.Len(t, updates, 1)
		d := updates[0].Delta
		require.NotNil(t, d)
		assert.Equal(t, id, d.FlowID)
		assert.Equal(t, 2, d.Version)
		assert.Contains(t, d.Added, "region")
		assert.Equal(t, []string{"name"}, d.Removed)
	})

	t.Run("Stale version", func(t *testing.T) {
		version := 1
		_, err := store.UpdateState(ctx, id, "region", "eu-west-1", &version)
		assert.ErrorIs(t, err, flow.ErrStale)

		snap, err := store.Get(id)
		require.NoError(t, err)
		assert.NotContains(t, snap.State, "region")
	})
}

func TestStore_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("Single shot", func(t *testing.T) {
		var events []session.CompleteEvent
		store := session.NewStore(session.WithHooks(session.Hooks{
			OnComplete: func(_ context.Context, e session.CompleteEvent) { events = append(events, e) },
		}))

		f := flow.New(nameSchema(), flow.WithOrigin("demo")).SetCompleter(flow.CompleteFunc(
			func(_ context.Context, s flow.State) (string, error) {
				return "hello " + s["name"].(string), nil
			}))
		id := store.Create(ctx, f)
		_, err := store.UpdateState(ctx, id, "name", "web", nil)
		require.NoError(t, err)

		out, err := store.Complete(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, session.Completion{FlowID: id, Origin: "demo", Result: "hello web", HasResult: true}, out)

		_, err = store.Get(id)
		assert.ErrorIs(t, err, session.ErrNotFound)
		_, err = store.Complete(ctx, id)
		assert.ErrorIs(t, err, session.ErrNotFound)

		require.Len(t, events, 1)
		assert.NoError(t, events[0].Err)
	})

	t.Run("Without handler", func(t *testing.T) {
		store := session.NewStore()
		id := store.Create(ctx, flow.New(nil))

		out, err := store.Complete(ctx, id)
		require.NoError(t, err)
		assert.False(t, out.HasResult)
		assert.Empty(t, out.Result)
		assert.Zero(t, store.Len())
	})

	t.Run("Handler failure still consumes the flow", func(t *testing.T) {
		store := session.NewStore()
		boom := errors.New("provider rejected request")
		id := store.Create(ctx, flow.New(nil, flow.WithCompleter(flow.CompleteFunc(
			func(context.Context, flow.State) (string, error) { return "", boom }))))

		_, err := store.Complete(ctx, id)
		assert.ErrorIs(t, err, boom)
		_, err = store.Get(id)
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("Handler runs outside the lock", func(t *testing.T) {
		store := session.NewStore()
		release := make(chan struct{})
		started := make(chan struct{})

		slow := store.Create(ctx, flow.New(nil, flow.WithCompleter(flow.CompleteFunc(
			func(context.Context, flow.State) (string, error) {
				close(started)
				<-release
				return "done", nil
			}))))
		other := store.Create(ctx, flow.New(nameSchema()))

		done := make(chan error, 1)
		go func() {
			_, err := store.Complete(ctx, slow)
			done <- err
		}()

		<-started
		_, err := store.UpdateState(ctx, other, "name", "x", nil)
		assert.NoError(t, err, "other flows progress while a handler runs")
		_, err = store.Get(slow)
		assert.ErrorIs(t, err, session.ErrNotFound)

		close(release)
		assert.NoError(t, <-done)
	})
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	store := session.NewStore()

	s := make(schema.Schema)
	for i := 0; i < 20; i++ {
		s[fmt.Sprintf("k%d", i)] = schema.Element{Name: "k", ResourceType: schema.TypeString}
	}
	id := store.Create(ctx, flow.New(s))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := store.UpdateState(ctx, id, fmt.Sprintf("k%d", n), n, nil)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	snap, err := store.Get(id)
	require.NoError(t, err)
	assert.Len(t, snap.State, 20)
	assert.Equal(t, 21, snap.Version, "no update is lost")
}

func TestChainHooks(t *testing.T) {
	var calls []string
	hooks := session.ChainHooks(
		session.Hooks{OnCreate: func(context.Context, session.Entry) { calls = append(calls, "a") }},
		session.Hooks{},
		session.Hooks{
			OnCreate: func(context.Context, session.Entry) { calls = append(calls, "b") },
			OnRemove: func(context.Context, session.Entry) { calls = append(calls, "removed") },
		},
	)
	assert.Nil(t, hooks.OnUpdate)

	store := session.NewStore(session.WithHooks(hooks))
	id := store.Create(context.Background(), flow.New(nameSchema()))
	_, err := store.Remove(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "removed"}, calls)
}
