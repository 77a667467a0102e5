package schema_test

import (
	"testing"

	"github.com/aretw0/formwork/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	prev := schema.Schema{
		"a": {Name: "A", ResourceType: schema.TypeString, RelativeOrder: schema.Order(1)},
		"b": {Name: "B", ResourceType: schema.TypeString, RelativeOrder: schema.Order(2)},
	}

	t.Run("No change", func(t *testing.T) {
		assert.Nil(t, schema.Diff(prev, prev.Clone()))
	})

	t.Run("Added changed removed", func(t *testing.T) {
		next := schema.Schema{
			"b": {Name: "B", ResourceType: schema.TypeString, RelativeOrder: schema.Order(2), DefaultValue: schema.Default("x")},
			"c": {Name: "C", ResourceType: "IamRole"},
		}
		d := schema.Diff(prev, next)
		require.NotNil(t, d)
		assert.Contains(t, d.Added, "c")
		assert.Contains(t, d.Changed, "b")
		assert.Equal(t, []string{"a"}, d.Removed)
	})

	t.Run("Nil previous", func(t *testing.T) {
		d := schema.Diff(nil, prev)
		require.NotNil(t, d)
		assert.Len(t, d.Added, 2)
		assert.Empty(t, d.Removed)
	})
}

func TestSchema_Ordered(t *testing.T) {
	s := schema.Schema{
		"z":      {Name: "Z"},
		"second": {Name: "S", RelativeOrder: schema.Order(2)},
		"first":  {Name: "F", RelativeOrder: schema.Order(1)},
		"a":      {Name: "A"},
	}

	var keys []string
	for _, f := range s.Ordered() {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"first", "second", "a", "z"}, keys)
}

func TestSchema_MergeAndClone(t *testing.T) {
	base := schema.Schema{"a": {Name: "A", ValidOptions: []string{"x"}}}
	merged := base.Merge(schema.Schema{"b": {Name: "B"}})

	assert.Equal(t, []string{"a", "b"}, merged.Keys())
	assert.Equal(t, []string{"a"}, base.Keys(), "merge does not mutate the receiver")

	clone := base.Clone()
	clone["a"].ValidOptions[0] = "changed"
	assert.Equal(t, "x", base["a"].ValidOptions[0])

	var empty schema.Schema
	assert.Equal(t, []string{"b"}, empty.Merge(schema.Schema{"b": {}}).Keys())
}
