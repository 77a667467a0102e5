package formwork_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/pkg/adapters/memory"
	"github.com/aretw0/formwork/pkg/dsl"
	"github.com/aretw0/formwork/pkg/flow"
	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/resource"
	"github.com/aretw0/formwork/pkg/schema"
	"github.com/aretw0/formwork/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// greeting asks for a name, then for a greeting, and completes with both.
func greeting() *flow.Flow {
	nameOnly := dsl.New().Add("name").Name("Your name").Required().MustBuild()
	withGreeting := dsl.New().Add("greeting").Name("Greeting").Options("Hello", "Hi").Required().MustBuild()

	return flow.New(nameOnly,
		flow.WithRecomputer(flow.RecomputeFunc(func(_ schema.Schema, state flow.State) schema.Schema {
			if _, ok := state["greeting"]; ok {
				return schema.Schema{}
			}
			if _, ok := state["name"]; ok {
				return withGreeting
			}
			return nameOnly
		})),
		flow.WithCompleter(flow.CompleteFunc(func(_ context.Context, state flow.State) (string, error) {
			s := state.Strings()
			return s["greeting"] + ", " + s["name"], nil
		})),
	)
}

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.NewRegistry()
	notes := func(context.Context, string) ([]resource.Summary, error) {
		return []resource.Summary{{Name: "first", IRI: "notes/first", ResourceType: "Note"}}, nil
	}

	require.NoError(t, reg.RegisterScope(resource.Summary{Name: "Notes", IRI: "notes", ResourceType: "Notes"}, notes))
	require.NoError(t, reg.Register(registry.Entry{
		Feature: registry.Feature{ID: "create-greeting", Name: "Greet", Type: registry.FeatureCreate},
		Create: func(context.Context, string) (*flow.Flow, error) {
			return greeting(), nil
		},
	}))
	require.NoError(t, reg.Register(registry.Entry{
		Feature: registry.Feature{ID: "list-notes", Name: "List notes", Type: registry.FeatureList},
		List:    notes,
	}))
	return reg
}

func TestEngine_FlowLifecycle(t *testing.T) {
	ctx := context.Background()
	engine := formwork.New(newRegistry(t))

	started, err := engine.StartFlow(ctx, "create-greeting")
	require.NoError(t, err)
	assert.Equal(t, flow.InitialVersion, started.Version)
	assert.Equal(t, []string{"name"}, started.Schema.Keys())

	next, err := engine.UpdateFlowState(ctx, started.FlowID, "name", "Ada", nil)
	require.NoError(t, err)
	assert.Equal(t, started.Version+1, next.Version)
	assert.Equal(t, []string{"greeting"}, next.Schema.Keys())

	got, err := engine.GetFlowSchema(started.FlowID)
	require.NoError(t, err)
	assert.Equal(t, next, got)

	v := next.Version
	_, err = engine.UpdateFlowState(ctx, started.FlowID, "greeting", "Hello", &v)
	require.NoError(t, err)

	snap, err := engine.GetFlowState(started.FlowID)
	require.NoError(t, err)
	assert.Equal(t, "create-greeting", snap.Origin)
	assert.Equal(t, flow.State{"name": "Ada", "greeting": "Hello"}, snap.State)

	done, err := engine.CompleteFlow(ctx, started.FlowID)
	require.NoError(t, err)
	assert.True(t, done.HasResult)
	assert.Equal(t, "Hello, Ada", done.Result)

	_, err = engine.GetFlowSchema(started.FlowID)
	assert.ErrorIs(t, err, formwork.ErrFlowNotFound)
}

func TestEngine_Errors(t *testing.T) {
	ctx := context.Background()
	engine := formwork.New(newRegistry(t), formwork.WithMaxInputSize(8))

	t.Run("Unknown feature", func(t *testing.T) {
		_, err := engine.StartFlow(ctx, "create-nothing")
		assert.ErrorIs(t, err, formwork.ErrUnknownFeature)
	})

	t.Run("Feature without a flow", func(t *testing.T) {
		_, err := engine.StartFlow(ctx, "list-notes")
		assert.ErrorIs(t, err, formwork.ErrNotCreateFeature)
	})

	started, err := engine.StartFlow(ctx, "create-greeting")
	require.NoError(t, err)

	t.Run("Field not offered", func(t *testing.T) {
		_, err := engine.UpdateFlowState(ctx, started.FlowID, "greeting", "Hi", nil)
		assert.ErrorIs(t, err, formwork.ErrInvalidField)
	})

	t.Run("Stale version", func(t *testing.T) {
		stale := started.Version + 5
		_, err := engine.UpdateFlowState(ctx, started.FlowID, "name", "Ada", &stale)
		assert.ErrorIs(t, err, formwork.ErrStale)
	})

	t.Run("Oversized input", func(t *testing.T) {
		_, err := engine.UpdateFlowState(ctx, started.FlowID, "name", strings.Repeat("a", 9), nil)
		assert.ErrorIs(t, err, formwork.ErrInvalidInput)
	})

	t.Run("Control characters stripped", func(t *testing.T) {
		_, err := engine.UpdateFlowState(ctx, started.FlowID, "name", "A\x00da", nil)
		require.NoError(t, err)
		snap, err := engine.GetFlowState(started.FlowID)
		require.NoError(t, err)
		assert.Equal(t, "Ada", snap.State["name"])
	})

	t.Run("Unknown flow", func(t *testing.T) {
		_, err := engine.UpdateFlowState(ctx, "missing", "name", "x", nil)
		assert.ErrorIs(t, err, formwork.ErrFlowNotFound)
		assert.ErrorIs(t, engine.CancelFlow(ctx, "missing"), formwork.ErrFlowNotFound)
	})

	t.Run("Cancel", func(t *testing.T) {
		require.NoError(t, engine.CancelFlow(ctx, started.FlowID))
		_, err := engine.CompleteFlow(ctx, started.FlowID)
		assert.ErrorIs(t, err, formwork.ErrFlowNotFound)
	})
}

func TestEngine_Catalog(t *testing.T) {
	ctx := context.Background()
	var created []string
	hooks := session.Hooks{
		OnCreate: func(_ context.Context, e session.Entry) { created = append(created, e.Origin) },
	}
	engine := formwork.New(newRegistry(t),
		formwork.WithCache(memory.NewCache(), 0),
		formwork.WithHooks(hooks),
	)

	roots, err := engine.Resources(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "notes", roots[0].IRI)

	items, err := engine.Resources(ctx, "notes", `name == "first"`)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = engine.Resources(ctx, "nowhere", "")
	assert.ErrorIs(t, err, formwork.ErrUnknownScope)

	features := engine.Features("")
	require.Len(t, features, 2)
	assert.Equal(t, "create-greeting", features[0].ID)

	listed, err := engine.RunFeature(ctx, "list-notes", "")
	require.NoError(t, err)
	assert.Equal(t, registry.FeatureList, listed.Type)
	assert.Len(t, listed.Resources, 1)

	res, err := engine.RunFeature(ctx, "create-greeting", "")
	require.NoError(t, err)
	require.NotNil(t, res.Flow)
	assert.Equal(t, []string{"create-greeting"}, created)

	flows := engine.Flows()
	require.Len(t, flows, 1)
	assert.Equal(t, res.Flow.FlowID, flows[0].ID)
}

func TestDecodeValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"plain", "plain"},
		{"42", "42"},
		{"true", "true"},
		{`{"a":1}`, map[string]any{"a": float64(1)}},
		{`["x","y"]`, []any{"x", "y"}},
		{`{broken`, `{broken`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, formwork.DecodeValue(tt.in))
		})
	}
}

func TestEngine_StartFlowReportsInitialSchema(t *testing.T) {
	ctx := context.Background()
	var engine *formwork.Engine
	var hookErr error
	engine = formwork.New(newRegistry(t), formwork.WithHooks(session.Hooks{
		OnCreate: func(ctx context.Context, entry session.Entry) {
			_, hookErr = engine.UpdateFlowState(ctx, entry.ID, "name", "Ada", nil)
		},
	}))

	started, err := engine.StartFlow(ctx, "create-greeting")
	require.NoError(t, err)
	require.NoError(t, hookErr)
	assert.Equal(t, flow.InitialVersion, started.Version)
	assert.Equal(t, []string{"name"}, started.Schema.Keys())

	current, err := engine.GetFlowSchema(started.FlowID)
	require.NoError(t, err)
	assert.Equal(t, started.Version+1, current.Version)
	assert.Equal(t, []string{"greeting"}, current.Schema.Keys())
}
