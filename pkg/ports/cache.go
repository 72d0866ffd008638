package ports

import (
	"context"

	"github.com/aretw0/dicetree/pkg/domain"
)

// DistributionCache stores exact distributions keyed by the canonical description of the
// expression and the limits it was computed under.
type DistributionCache interface {
	// Get returns the cached distribution for key. A miss is (zero, false, nil).
	Get(ctx context.Context, key string) (domain.Distribution, bool, error)

	// Put stores dist under key, replacing any previous entry.
	Put(ctx context.Context, key string, dist domain.Distribution) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the keys currently cached.
	List(ctx context.Context) ([]string, error)
}
