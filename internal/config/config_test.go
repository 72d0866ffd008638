package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/dicetree/internal/config"
	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, domain.DefaultLimits(), cfg.Limits())
	assert.Nil(t, cfg.Seed)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "dicetree.yaml", `
seed: 42
max_pool_width: 16
cache: sqlite
cache_path: /tmp/dists.db
cache_ttl: 90s
log_level: debug
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Seed)
	assert.Equal(t, int64(42), *cfg.Seed)
	assert.Equal(t, 16, cfg.Limits().MaxPoolWidth)
	assert.Equal(t, domain.DefaultMaxOutcomes, cfg.Limits().MaxOutcomes)
	assert.Equal(t, config.CacheSQLite, cfg.Cache)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "dicetree.json", `{"max_outcomes": 1000, "cache": "none"}`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.MaxOutcomes)
	assert.Equal(t, config.CacheNone, cfg.Cache)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "dicetree.yaml", "seed: 1\nmax_depth: 8\n")
	t.Setenv("DICETREE_SEED", "7")
	t.Setenv("DICETREE_CACHE", "redis")
	t.Setenv("DICETREE_REDIS_ADDR", "localhost:6379")
	t.Setenv("DICETREE_CACHE_TTL", "5m")
	t.Setenv("DICETREE_MAX_WORK", "1000")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, int64(7), *cfg.Seed)
	assert.Equal(t, 8, cfg.MaxDepth)
	assert.Equal(t, config.CacheRedis, cfg.Cache)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 1000, cfg.Limits().MaxWork)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown backend", "cache: etcd\n"},
		{"redis without address", "cache: redis\n"},
		{"negative limit", "max_outcomes: -1\n"},
		{"negative work", "max_work: -1\n"},
		{"bad level", "log_level: loud\n"},
		{"bad format", "log_format: xml\n"},
		{"malformed", "seed: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, "dicetree.yaml", tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_BadEnvironment(t *testing.T) {
	t.Setenv("DICETREE_MAX_POOL_WIDTH", "wide")
	_, err := config.Load("")
	assert.ErrorContains(t, err, "parse env")
}
