package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/formwork/pkg/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunResourceCacheContract runs a suite of tests to verify that a ResourceCache
// implementation adheres to the defined interface contract.
func RunResourceCacheContract(t *testing.T, cache ResourceCache) {
	ctx := context.Background()
	scope := "contract:" + time.Now().Format("20060102150405")

	items := []resource.Summary{
		{Name: "i-1", IRI: "aws:ec2/instance/i-1", ResourceType: "EC2Instance", Detail: map[string]string{"state": "Running"}},
		{Name: "i-2", IRI: "aws:ec2/instance/i-2", ResourceType: "EC2Instance"},
	}

	t.Run("Miss", func(t *testing.T) {
		_, err := cache.Get(ctx, scope+":absent")
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("Set and Get", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, scope, items, 0))

		got, err := cache.Get(ctx, scope)
		require.NoError(t, err)
		assert.Equal(t, items, got)
	})

	t.Run("Copies are isolated", func(t *testing.T) {
		got, err := cache.Get(ctx, scope)
		require.NoError(t, err)
		got[0].Name = "mutated"

		again, err := cache.Get(ctx, scope)
		require.NoError(t, err)
		assert.Equal(t, "i-1", again[0].Name)
	})

	t.Run("Empty listing is a hit", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, scope+":empty", []resource.Summary{}, 0))
		got, err := cache.Get(ctx, scope+":empty")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Invalidate by prefix", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, scope+":a", items, 0))
		require.NoError(t, cache.Set(ctx, "other:"+scope, items, 0))

		require.NoError(t, cache.Invalidate(ctx, scope))

		_, err := cache.Get(ctx, scope)
		assert.ErrorIs(t, err, ErrCacheMiss)
		_, err = cache.Get(ctx, scope+":a")
		assert.ErrorIs(t, err, ErrCacheMiss)

		_, err = cache.Get(ctx, "other:"+scope)
		assert.NoError(t, err, "scopes outside the prefix survive")

		require.NoError(t, cache.Invalidate(ctx, ""))
		_, err = cache.Get(ctx, "other:"+scope)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})
}
