package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/dicetree/pkg/adapters/sqlite"
	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/aretw0/dicetree/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteCache_Contract(t *testing.T) {
	cache, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	ports.RunDistributionCacheContract(t, cache)
}

func TestSQLiteCache_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	cache, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, cache.Put(ctx, "2d20kh", domain.Uniform(1, 20)))
	require.NoError(t, cache.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, found, err := reopened.Get(ctx, "2d20kh")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, domain.Uniform(1, 20).Equal(got, 1e-12))
}

func TestSQLiteCache_RequiresPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	assert.Error(t, err)

	var nilCache *sqlite.Cache
	assert.NoError(t, nilCache.Close())
}
