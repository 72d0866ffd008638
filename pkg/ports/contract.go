package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDistributionCacheContract runs a suite of tests to verify that a DistributionCache
// implementation adheres to the defined interface contract.
func RunDistributionCacheContract(t *testing.T, cache DistributionCache) {
	ctx := context.Background()
	key := "contract-" + time.Now().Format("20060102150405") + "|3d6"
	dist := domain.Uniform(1, 2, 3, 4, 5, 6).Convolve(domain.Uniform(1, 2, 3, 4, 5, 6))

	t.Run("Miss", func(t *testing.T) {
		_, found, err := cache.Get(ctx, "missing-"+key)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Put and Get", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, key, dist))

		got, found, err := cache.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, dist.Equal(got, 1e-12), "got %s", got)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, key, domain.Point(4)))
		got, found, err := cache.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, domain.Point(4).Equal(got, 0))
	})

	t.Run("List", func(t *testing.T) {
		other := key + "-other"
		require.NoError(t, cache.Put(ctx, other, domain.Point(1)))
		defer func() { _ = cache.Delete(ctx, other) }()

		keys, err := cache.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, key)
		assert.Contains(t, keys, other)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, cache.Delete(ctx, key))
		_, found, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, found)

		assert.NoError(t, cache.Delete(ctx, key), "deleting a missing key")
	})

	t.Run("Concurrent", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				k := key + "-concurrent"
				assert.NoError(t, cache.Put(ctx, k, domain.Point(i)))
				_, _, err := cache.Get(ctx, k)
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()
		_ = cache.Delete(ctx, key+"-concurrent")
	})
}
