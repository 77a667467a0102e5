package definitions_test

import (
	"context"
	"runtime"
	"testing"

	"github.com/aretw0/formwork/internal/domains/definitions"
	"github.com/aretw0/formwork/pkg/adapters/memory"
	"github.com/aretw0/formwork/pkg/ports"
	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/schema"
	"github.com/aretw0/formwork/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func controller() *tools.Controller {
	return tools.NewController(tools.WithRegistry(map[string]tools.Config{
		"greet": {
			Name:    "greet",
			Command: "sh",
			Args:    []string{"-c", `echo "  hello $FORMWORK_ARG_WHO  "`},
		},
	}))
}

func greetDefinition() ports.Definition {
	return ports.Definition{
		ID:           "greeting",
		Name:         "Greeting",
		ResourceType: "Tools",
		Tool:         "greet",
		Fields: schema.Schema{
			"who": {Name: "Who", ResourceType: schema.TypeString, Required: true},
		},
	}
}

type source struct {
	defs []ports.Definition
}

func (s *source) Definitions(context.Context) ([]ports.Definition, error) {
	return s.defs, nil
}

func TestRegister(t *testing.T) {
	loader, err := memory.NewFromDefinitions(
		greetDefinition(),
		ports.Definition{ID: "note", Name: "Note", Fields: schema.Schema{"text": {Name: "Text"}}},
		ports.Definition{ID: "orphan", Tool: "unknown-tool"},
	)
	require.NoError(t, err)

	reg := registry.NewRegistry()
	d := definitions.New(loader, controller())
	require.NoError(t, d.Register(context.Background(), reg))

	_, err = reg.Lookup("create-greeting")
	assert.NoError(t, err)
	_, err = reg.Lookup("create-orphan")
	assert.ErrorIs(t, err, registry.ErrUnknownFeature, "unknown tools are skipped")

	require.Len(t, reg.Features("Tools"), 1)
	global := reg.Features("")
	require.Len(t, global, 1)
	assert.Equal(t, "create-note", global[0].ID)
}

func TestRegister_Resync(t *testing.T) {
	src := &source{defs: []ports.Definition{greetDefinition()}}
	reg := registry.NewRegistry()
	d := definitions.New(src, controller())
	require.NoError(t, d.Register(context.Background(), reg))

	src.defs = []ports.Definition{{ID: "note", Name: "Note"}}
	require.NoError(t, d.Register(context.Background(), reg))

	_, err := reg.Lookup("create-greeting")
	assert.ErrorIs(t, err, registry.ErrUnknownFeature)
	_, err = reg.Lookup("create-note")
	assert.NoError(t, err)
}

func TestToolCompletion(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	ctx := context.Background()
	d := definitions.New(&source{}, controller())

	t.Run("Runs tool with state", func(t *testing.T) {
		f := d.NewFlow(greetDefinition())
		require.NoError(t, f.UpdateState("who", "world"))

		result, ok, err := f.Complete(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "hello world", result)
	})

	t.Run("Validates before running", func(t *testing.T) {
		f := d.NewFlow(greetDefinition())
		_, _, err := f.Complete(ctx)
		require.Error(t, err)
		assert.Len(t, schema.ValidationErrors(err), 1)
	})

	t.Run("No tool means no result", func(t *testing.T) {
		f := d.NewFlow(ports.Definition{ID: "note", Fields: schema.Schema{"text": {Name: "Text"}}})
		result, ok, err := f.Complete(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, result)
	})
}
