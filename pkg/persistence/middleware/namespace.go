package middleware

import (
	"context"
	"strings"

	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/aretw0/dicetree/pkg/ports"
)

type namespaceMiddleware struct {
	next   ports.DistributionCache
	prefix string
}

// NewNamespaceMiddleware prefixes every key with prefix. List only reports keys inside the
// namespace, with the prefix stripped, so several versions can share one backend.
func NewNamespaceMiddleware(prefix string) Middleware {
	return func(next ports.DistributionCache) ports.DistributionCache {
		return &namespaceMiddleware{next: next, prefix: prefix}
	}
}

func (m *namespaceMiddleware) Get(ctx context.Context, key string) (domain.Distribution, bool, error) {
	return m.next.Get(ctx, m.prefix+key)
}

func (m *namespaceMiddleware) Put(ctx context.Context, key string, dist domain.Distribution) error {
	return m.next.Put(ctx, m.prefix+key, dist)
}

func (m *namespaceMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, m.prefix+key)
}

func (m *namespaceMiddleware) List(ctx context.Context) ([]string, error) {
	keys, err := m.next.List(ctx)
	if err != nil {
		return nil, err
	}
	out := keys[:0:0]
	for _, k := range keys {
		if rest, ok := strings.CutPrefix(k, m.prefix); ok {
			out = append(out, rest)
		}
	}
	return out, nil
}
