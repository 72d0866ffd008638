package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/dicetree"
	"github.com/aretw0/dicetree/internal/config"
	"github.com/aretw0/dicetree/pkg/adapters/memory"
	"github.com/aretw0/dicetree/pkg/adapters/redis"
	"github.com/aretw0/dicetree/pkg/adapters/sqlite"
	"github.com/aretw0/dicetree/pkg/expr"
	"github.com/aretw0/dicetree/pkg/observability"
	"github.com/aretw0/dicetree/pkg/persistence/middleware"
	"github.com/aretw0/dicetree/pkg/ports"
	"github.com/aretw0/dicetree/pkg/registry"
)

// Runtime bundles an engine with the resources it owns.
type Runtime struct {
	Engine  *dicetree.Engine
	Metrics *observability.Metrics
	Cache   ports.DistributionCache
	Presets *registry.Registry
	Logger  *slog.Logger
	Config  config.Config

	closers []func() error
}

// NewRuntime initializes a dicetree engine with standard CLI conventions: the cache
// backend from cfg, a private metrics registry and the configured seed.
func NewRuntime(cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{
		Metrics: observability.NewMetrics(nil),
		Presets: registry.NewRegistry(),
		Logger:  logger,
		Config:  cfg,
	}

	if cfg.PresetsDir != "" {
		n, err := rt.Presets.LoadDir(cfg.PresetsDir)
		if err != nil {
			return nil, err
		}
		logger.Debug("presets loaded", "dir", cfg.PresetsDir, "count", n)
	}

	cache, locker, closer, err := openCache(cfg)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		// Persistent backends outlive the binary; entries from other versions stay invisible.
		cache = middleware.Chain(cache,
			middleware.NewNamespaceMiddleware(CacheNamespace()),
			middleware.NewIntegrityMiddleware(middleware.DefaultTolerance, logger),
		)
	}
	rt.Cache = cache
	if closer != nil {
		rt.closers = append(rt.closers, closer)
	}

	opts := []dicetree.Option{
		dicetree.WithLogger(logger),
		dicetree.WithLimits(cfg.Limits()),
		dicetree.WithMetrics(rt.Metrics),
	}
	if cfg.Seed != nil {
		opts = append(opts, dicetree.WithSeed(*cfg.Seed))
	}
	if cache != nil {
		opts = append(opts, dicetree.WithCache(cache))
	}
	if locker != nil {
		opts = append(opts, dicetree.WithLocker(locker, dicetree.DefaultLockTTL))
	}

	eng, err := dicetree.New(opts...)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	rt.Engine = eng
	return rt, nil
}

// Expression resolves a command-line expression argument: "@name" looks up a preset,
// anything else goes through LoadExpression.
func (r *Runtime) Expression(arg string, stdin io.Reader) (expr.Node, error) {
	if name, ok := strings.CutPrefix(arg, "@"); ok {
		return r.Presets.Lookup(name)
	}
	return LoadExpression(arg, stdin)
}

// CacheNamespace is the key prefix of the running version.
func CacheNamespace() string {
	return "v" + strings.TrimSpace(dicetree.Version) + "/"
}

// Close releases the cache connections.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

func openCache(cfg config.Config) (ports.DistributionCache, ports.DistributedLocker, func() error, error) {
	switch cfg.Cache {
	case config.CacheNone:
		return nil, nil, nil, nil
	case config.CacheMemory, "":
		return memory.NewCache(), nil, nil, nil
	case config.CacheSQLite:
		c, err := sqlite.Open(cfg.CachePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open sqlite cache: %w", err)
		}
		return c, nil, c.Close, nil
	case config.CacheRedis:
		c := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redis.WithTTL(cfg.CacheTTL))
		return c, redis.NewLocker(c.Client(), redis.DefaultPrefix), c.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache)
	}
}
