package middleware

import (
	"context"
	"log/slog"
	"math"

	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/aretw0/dicetree/pkg/ports"
)

// DefaultTolerance is the largest accepted deviation of a cached distribution's total mass from 1.
const DefaultTolerance = 1e-9

type integrityMiddleware struct {
	next      ports.DistributionCache
	tolerance float64
	logger    *slog.Logger
}

// NewIntegrityMiddleware rejects cached entries that are not probability distributions
// (empty, or with total mass off by more than tolerance). A rejected entry is deleted and
// reported as a miss so the caller recomputes it.
func NewIntegrityMiddleware(tolerance float64, logger *slog.Logger) Middleware {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next ports.DistributionCache) ports.DistributionCache {
		return &integrityMiddleware{next: next, tolerance: tolerance, logger: logger}
	}
}

func (m *integrityMiddleware) Get(ctx context.Context, key string) (domain.Distribution, bool, error) {
	dist, ok, err := m.next.Get(ctx, key)
	if err != nil || !ok {
		return dist, ok, err
	}
	if m.valid(dist) {
		return dist, true, nil
	}

	m.logger.Warn("Discarding corrupt cached distribution", "key", key, "outcomes", dist.Len(), "total", dist.Total())
	if err := m.next.Delete(ctx, key); err != nil {
		m.logger.Warn("Failed to delete corrupt cached distribution", "key", key, "err", err)
	}
	return domain.Distribution{}, false, nil
}

func (m *integrityMiddleware) Put(ctx context.Context, key string, dist domain.Distribution) error {
	if !m.valid(dist) {
		return &domain.TypeError{Where: "cache put", Value: dist}
	}
	return m.next.Put(ctx, key, dist)
}

func (m *integrityMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *integrityMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *integrityMiddleware) valid(dist domain.Distribution) bool {
	return dist.Len() > 0 && math.Abs(dist.Total()-1) <= m.tolerance
}
