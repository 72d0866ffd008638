// Package middleware wraps a ports.DistributionCache with extra behavior: key namespacing
// and integrity checks on read.
package middleware

import "github.com/aretw0/dicetree/pkg/ports"

// Middleware allows wrapping a DistributionCache to add behavior.
type Middleware func(ports.DistributionCache) ports.DistributionCache

// Chain applies mws to cache so that the first middleware is the outermost.
func Chain(cache ports.DistributionCache, mws ...Middleware) ports.DistributionCache {
	for i := len(mws) - 1; i >= 0; i-- {
		cache = mws[i](cache)
	}
	return cache
}
