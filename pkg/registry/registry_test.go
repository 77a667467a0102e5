package registry_test

import (
	"context"
	"testing"

	"github.com/aretw0/formwork/pkg/flow"
	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listNothing(context.Context, string) ([]resource.Summary, error) { return nil, nil }

func TestRegistry_Register(t *testing.T) {
	r := registry.NewRegistry()

	require.NoError(t, r.Register(registry.Entry{
		Feature: registry.Feature{ID: "list-things", Type: registry.FeatureList},
		List:    listNothing,
	}))

	t.Run("Duplicate", func(t *testing.T) {
		err := r.Register(registry.Entry{
			Feature: registry.Feature{ID: "list-things", Type: registry.FeatureList},
			List:    listNothing,
		})
		assert.ErrorIs(t, err, registry.ErrInvalidFeature)
	})

	t.Run("Missing handler", func(t *testing.T) {
		err := r.Register(registry.Entry{
			Feature: registry.Feature{ID: "create-thing", Type: registry.FeatureCreate},
			List:    listNothing,
		})
		assert.ErrorIs(t, err, registry.ErrInvalidFeature)
	})

	t.Run("Unknown type", func(t *testing.T) {
		err := r.Register(registry.Entry{Feature: registry.Feature{ID: "x", Type: "Teleport"}})
		assert.ErrorIs(t, err, registry.ErrInvalidFeature)
	})

	t.Run("Empty id", func(t *testing.T) {
		err := r.Register(registry.Entry{Feature: registry.Feature{Type: registry.FeatureList}, List: listNothing})
		assert.ErrorIs(t, err, registry.ErrInvalidFeature)
	})
}

func TestRegistry_Lookup(t *testing.T) {
	r := registry.NewRegistry()
	require.NoError(t, r.Register(registry.Entry{
		Feature: registry.Feature{ID: "create-thing", Type: registry.FeatureCreate},
		Create: func(context.Context, string) (*flow.Flow, error) {
			return flow.New(nil), nil
		},
	}))

	e, err := r.Lookup("create-thing")
	require.NoError(t, err)
	assert.Equal(t, "create-thing", e.Name, "name defaults to id")

	_, err = r.Lookup("missing")
	assert.ErrorIs(t, err, registry.ErrUnknownFeature)
}

func TestRegistry_Features(t *testing.T) {
	r := registry.NewRegistry()
	register := func(id string, targets ...string) {
		require.NoError(t, r.Register(registry.Entry{
			Feature: registry.Feature{ID: id, Type: registry.FeatureList, Targets: targets},
			List:    listNothing,
		}))
	}
	register("b-global")
	register("a-global")
	register("list-instances", "EC2")
	register("stateful", "EC2Instance", "SpawnedTool")

	ids := func(fs []registry.Feature) []string {
		out := make([]string, 0, len(fs))
		for _, f := range fs {
			out = append(out, f.ID)
		}
		return out
	}

	assert.Equal(t, []string{"a-global", "b-global"}, ids(r.Features("")))
	assert.Equal(t, []string{"list-instances"}, ids(r.Features("EC2")))
	assert.Equal(t, []string{"stateful"}, ids(r.Features("SpawnedTool")))
	assert.Empty(t, r.Features("Unknown"))
}

func TestRegistry_Scopes(t *testing.T) {
	r := registry.NewRegistry()
	items := []resource.Summary{{Name: "i-1", IRI: "aws:ec2/instance/i-1"}}

	require.NoError(t, r.RegisterScope(resource.Summary{Name: "EC2", IRI: "aws:ec2"},
		func(context.Context, string) ([]resource.Summary, error) { return items, nil }))
	require.NoError(t, r.RegisterScope(resource.Summary{Name: "Tools", IRI: "aws:"},
		listNothing))

	roots := r.Roots()
	require.Len(t, roots, 2)
	assert.Equal(t, "aws:", roots[0].IRI)

	list, err := r.Scope("aws:ec2")
	require.NoError(t, err)
	got, err := list(context.Background(), "aws:ec2")
	require.NoError(t, err)
	assert.Equal(t, items, got)

	_, err = r.Scope("gcp")
	assert.ErrorIs(t, err, registry.ErrUnknownScope)

	assert.ErrorIs(t, r.RegisterScope(resource.Summary{IRI: "aws:ec2"}, listNothing), registry.ErrInvalidFeature)
	assert.ErrorIs(t, r.RegisterScope(resource.Summary{}, listNothing), registry.ErrInvalidFeature)
}

func TestRegistry_ReplaceUnregister(t *testing.T) {
	r := registry.NewRegistry()
	entry := registry.Entry{
		Feature: registry.Feature{ID: "create-note", Name: "Note", Type: registry.FeatureCreate},
		Create: func(context.Context, string) (*flow.Flow, error) {
			return flow.New(nil), nil
		},
	}
	require.NoError(t, r.Replace(entry))

	entry.Name = "Note v2"
	require.NoError(t, r.Replace(entry))
	e, err := r.Lookup("create-note")
	require.NoError(t, err)
	assert.Equal(t, "Note v2", e.Name)

	assert.ErrorIs(t, r.Replace(registry.Entry{Feature: registry.Feature{ID: "x", Type: registry.FeatureList}}), registry.ErrInvalidFeature)

	assert.True(t, r.Unregister("create-note"))
	assert.False(t, r.Unregister("create-note"))
	_, err = r.Lookup("create-note")
	assert.ErrorIs(t, err, registry.ErrUnknownFeature)
}
