package expression_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/formwork/pkg/expression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	roleRef := expression.Reference(
		expression.ValueOf("stage"),
		expression.Segment("pipeline_execution_role"),
	)

	tests := []struct {
		name   string
		expr   expression.Expression
		state  map[string]any
		want   string
		wantOK bool
	}{
		{
			name:   "literal always resolves",
			expr:   expression.Literal("What is your name?"),
			state:  nil,
			want:   "What is your name?",
			wantOK: true,
		},
		{
			name:   "unbound valueOf yields no value",
			expr:   roleRef,
			state:  map[string]any{},
			wantOK: false,
		},
		{
			name:   "joined key absent yields no value",
			expr:   roleRef,
			state:  map[string]any{"stage": "foo"},
			wantOK: false,
		},
		{
			name: "joined key present resolves",
			expr: roleRef,
			state: map[string]any{
				"stage":                        "foo",
				"foo.pipeline_execution_role": "bar",
			},
			want:   "bar",
			wantOK: true,
		},
		{
			name:   "all literal path",
			expr:   expression.Reference(expression.Segment("a"), expression.Segment("b")),
			state:  map[string]any{"a.b": "c"},
			want:   "c",
			wantOK: true,
		},
		{
			name:   "numeric values are rendered",
			expr:   expression.Reference(expression.ValueOf("n"), expression.Segment("port")),
			state:  map[string]any{"n": float64(2), "2.port": float64(8080)},
			want:   "8080",
			wantOK: true,
		},
		{
			name:   "structured value does not resolve",
			expr:   expression.Reference(expression.Segment("obj")),
			state:  map[string]any{"obj": map[string]any{"k": "v"}},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := expression.Resolve(tt.expr, tt.state)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_IsPure(t *testing.T) {
	expr := expression.Reference(expression.ValueOf("stage"), expression.Segment("role"))
	state := map[string]any{"stage": "dev", "dev.role": "admin"}

	first, ok1 := expression.Resolve(expr, state)
	second, ok2 := expression.Resolve(expr, state)

	assert.Equal(t, first, second)
	assert.Equal(t, ok1, ok2)
	assert.Len(t, state, 2, "resolution must not write to state")
}

func TestDependencies(t *testing.T) {
	expr := expression.Reference(
		expression.ValueOf("a"),
		expression.Segment("x"),
		expression.ValueOf("b"),
	)
	assert.Equal(t, []string{"a", "b"}, expression.Dependencies(expr))
	assert.Empty(t, expression.Dependencies(expression.Literal("a")))
}

func TestExpression_UnmarshalJSON(t *testing.T) {
	t.Run("string form is a literal", func(t *testing.T) {
		var x expression.Expression
		require.NoError(t, json.Unmarshal([]byte(`"sam-app"`), &x))
		assert.False(t, x.IsReference())

		got, ok := expression.Resolve(x, nil)
		assert.True(t, ok)
		assert.Equal(t, "sam-app", got)
	})

	t.Run("keyPath form is a reference", func(t *testing.T) {
		var x expression.Expression
		raw := `{"keyPath": [{"valueOf": "testing_stage_name"}, "pipeline_execution_role"]}`
		require.NoError(t, json.Unmarshal([]byte(raw), &x))
		require.True(t, x.IsReference())

		path := x.Path()
		require.Len(t, path, 2)
		assert.True(t, path[0].IsValueOf())
		assert.Equal(t, "testing_stage_name", path[0].Key())
		assert.Equal(t, "pipeline_execution_role", path[1].Text())
	})

	t.Run("rejects unknown shapes", func(t *testing.T) {
		var x expression.Expression
		assert.ErrorIs(t, json.Unmarshal([]byte(`{"keyPath": []}`), &x), expression.ErrMalformed)
		assert.Error(t, json.Unmarshal([]byte(`{"keyPath": [{"other": "k"}]}`), &x))
		assert.Error(t, json.Unmarshal([]byte(`42`), &x))
	})

	t.Run("encodes back to the wire form", func(t *testing.T) {
		x := expression.Reference(expression.ValueOf("stage"), expression.Segment("role"))
		data, err := json.Marshal(x)
		require.NoError(t, err)
		assert.JSONEq(t, `{"keyPath": [{"valueOf": "stage"}, "role"]}`, string(data))
	})
}
