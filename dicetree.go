package dicetree

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/dicetree/internal/keylock"
	"github.com/aretw0/dicetree/internal/validator"
	"github.com/aretw0/dicetree/pkg/adapters/random"
	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/aretw0/dicetree/pkg/expr"
	"github.com/aretw0/dicetree/pkg/observability"
	"github.com/aretw0/dicetree/pkg/ports"
)

// DefaultLockTTL bounds how long one replica may hold the computation lock of a cache key.
const DefaultLockTTL = 30 * time.Second

// Engine is the high-level entry point for the dicetree library.
// It owns the shared random source and wires the optional cache, locker and metrics
// around the expression tree operations.
type Engine struct {
	shared  *random.Shared
	limits  domain.Limits
	cache   ports.DistributionCache
	locker  ports.DistributedLocker
	lockTTL time.Duration
	guard   *keylock.Guard
	metrics *observability.Metrics
	logger  *slog.Logger

	src    domain.Source
	seed   *int64
	srcSet bool
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithSource installs src as the engine's random source.
// A nil src leaves the engine unconfigured; every evaluation then fails with domain.ErrNoSource.
func WithSource(src domain.Source) Option {
	return func(e *Engine) {
		e.src = src
		e.srcSet = true
	}
}

// WithSeed uses a deterministic generator seeded with seed.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.seed = &seed
	}
}

// WithLimits sets the ceilings for exact distribution computation.
func WithLimits(lim domain.Limits) Option {
	return func(e *Engine) {
		e.limits = lim
	}
}

// WithCache stores computed distributions in c.
func WithCache(c ports.DistributionCache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithLocker serializes cache misses across replicas sharing the same cache.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = l
		e.lockTTL = ttl
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics records rolls and distribution lookups in m.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New initializes an Engine.
// Without WithSource or WithSeed the engine draws from a cryptographically seeded generator.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{lockTTL: DefaultLockTTL}
	for _, opt := range opts {
		opt(eng)
	}

	var src domain.Source
	switch {
	case eng.srcSet:
		src = eng.src
	case eng.seed != nil:
		src = random.New(*eng.seed)
	default:
		r, err := random.NewRandom()
		if err != nil {
			return nil, fmt.Errorf("failed to seed random source: %w", err)
		}
		src = r
	}
	eng.shared = random.NewShared(src)
	eng.limits = eng.limits.Resolve()
	if eng.lockTTL <= 0 {
		eng.lockTTL = DefaultLockTTL
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.cache != nil {
		gopts := []keylock.Option{keylock.WithLogger(eng.logger)}
		if eng.locker != nil {
			gopts = append(gopts, keylock.WithLocker(eng.locker, eng.lockTTL))
		}
		eng.guard = keylock.New(gopts...)
	}
	return eng, nil
}

// Limits returns the resolved computation ceilings.
func (e *Engine) Limits() domain.Limits {
	return e.limits
}

// Metrics returns the configured metrics, or nil.
func (e *Engine) Metrics() *observability.Metrics {
	return e.metrics
}

// Cache returns the configured distribution cache, or nil.
func (e *Engine) Cache() ports.DistributionCache {
	return e.cache
}

// Swap replaces the random source without rebuilding any expression and returns the
// previous one.
func (e *Engine) Swap(src domain.Source) domain.Source {
	return e.shared.Swap(src)
}

// Roll evaluates node once.
func (e *Engine) Roll(ctx context.Context, node expr.Node) (int, error) {
	if err := e.ready(ctx, node); err != nil {
		return 0, err
	}
	node = e.instrument(node)

	var v int
	err := e.shared.Lock(func(src domain.Source) error {
		var err error
		v, err = expr.Roll(src, node)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("roll %s: %w", node, err)
	}
	return v, nil
}

// Simulate evaluates node for the given number of independent trials.
func (e *Engine) Simulate(ctx context.Context, node expr.Node, trials int) (domain.Batch, error) {
	if err := e.ready(ctx, node); err != nil {
		return nil, err
	}
	if trials <= 0 {
		return nil, domain.ErrInvalidCount
	}
	node = e.instrument(node)

	var out domain.Batch
	err := e.shared.Lock(func(src domain.Source) error {
		var err error
		out, err = expr.Sample(src, node, trials)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("simulate %s: %w", node, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Estimate approximates the distribution of node from a simulation of trials draws.
func (e *Engine) Estimate(ctx context.Context, node expr.Node, trials int) (domain.Distribution, error) {
	b, err := e.Simulate(ctx, node, trials)
	if err != nil {
		return domain.Distribution{}, err
	}
	return b.Histogram(), nil
}

// Check reports whether the exact distribution of node fits the engine limits.
func (e *Engine) Check(node expr.Node) error {
	return validator.ValidateExpression(node, e.limits)
}

// Distribution computes the exact distribution of node.
// Expressions that cannot fit the limits are rejected with a *domain.LimitError before any
// enumeration starts.
func (e *Engine) Distribution(ctx context.Context, node expr.Node) (domain.Distribution, error) {
	if node == nil {
		return domain.Distribution{}, &domain.TypeError{Where: "distribution", Value: node}
	}
	if err := ctx.Err(); err != nil {
		return domain.Distribution{}, err
	}
	if err := e.Check(node); err != nil {
		e.logger.Warn("distribution rejected", "expr", node.String(), "err", err)
		e.observe(observability.SourceRejected, 0)
		return domain.Distribution{}, err
	}

	key := CacheKey(node, e.limits)
	if dist, ok := e.lookup(ctx, key); ok {
		return dist, nil
	}

	if e.guard == nil {
		return e.compute(ctx, node, key)
	}

	var dist domain.Distribution
	err := e.guard.WithLock(ctx, key, func(ctx context.Context) error {
		// Another caller may have filled the entry while we waited.
		if cached, ok := e.lookup(ctx, key); ok {
			dist = cached
			return nil
		}
		var err error
		dist, err = e.compute(ctx, node, key)
		return err
	})
	if err != nil {
		return domain.Distribution{}, err
	}
	return dist, nil
}

func (e *Engine) compute(ctx context.Context, node expr.Node, key string) (domain.Distribution, error) {
	start := time.Now()
	dist, err := node.Distribution(e.limits)
	if err != nil {
		if errors.Is(err, domain.ErrResourceLimit) {
			e.logger.Warn("distribution exceeded limits", "expr", node.String(), "err", err)
			e.observe(observability.SourceRejected, 0)
		}
		return domain.Distribution{}, fmt.Errorf("distribution %s: %w", node, err)
	}
	elapsed := time.Since(start)
	e.observe(observability.SourceComputed, elapsed)
	e.logger.Debug("distribution computed", "expr", node.String(), "outcomes", dist.Len(), "elapsed", elapsed)

	if e.cache != nil {
		if err := e.cache.Put(ctx, key, dist); err != nil {
			e.logger.Warn("failed to cache distribution", "key", key, "err", err)
		}
	}
	return dist, nil
}

// CacheKey identifies the distribution of node computed under lim.
func CacheKey(node expr.Node, lim domain.Limits) string {
	lim = lim.Resolve()
	return fmt.Sprintf("%s|w%d|o%d|d%d|k%d", node, lim.MaxPoolWidth, lim.MaxOutcomes, lim.MaxDepth, lim.MaxWork)
}

func (e *Engine) lookup(ctx context.Context, key string) (domain.Distribution, bool) {
	if e.cache == nil {
		return domain.Distribution{}, false
	}
	dist, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		// A broken cache degrades to recomputation.
		e.logger.Warn("distribution cache read failed", "key", key, "err", err)
		return domain.Distribution{}, false
	}
	if !ok {
		return domain.Distribution{}, false
	}
	e.logger.Debug("distribution cache hit", "key", key)
	e.observe(observability.SourceCache, 0)
	return dist, true
}

func (e *Engine) ready(ctx context.Context, node expr.Node) error {
	if node == nil {
		return &domain.TypeError{Where: "evaluate", Value: node}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !e.shared.Configured() {
		return domain.ErrNoSource
	}
	return nil
}

func (e *Engine) instrument(node expr.Node) expr.Node {
	if e.metrics == nil {
		return node
	}
	return observability.Instrument(node, e.metrics)
}

func (e *Engine) observe(source string, elapsed time.Duration) {
	if e.metrics != nil {
		e.metrics.ObserveDistribution(source, elapsed)
	}
}
