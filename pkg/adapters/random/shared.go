package random

import (
	"sync"

	"github.com/aretw0/dicetree/pkg/domain"
)

// Shared is a swappable, mutex-serialized holder for the process-wide random source.
// Drawing from a Shared that holds no source panics with domain.ErrNoSource: without a
// source no node can produce output, so this is a configuration failure, not a per-call error.
type Shared struct {
	mu  sync.Mutex
	src domain.Source
}

// NewShared wraps src.
func NewShared(src domain.Source) *Shared {
	return &Shared{src: src}
}

// Swap installs src and returns the previously held source.
func (s *Shared) Swap(src domain.Source) domain.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.src
	s.src = src
	return prev
}

// Configured reports whether a source is installed.
func (s *Shared) Configured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src != nil
}

// IntRange draws from the held source.
func (s *Shared) IntRange(lo, hi int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current().IntRange(lo, hi)
}

// Sample draws from the held source.
func (s *Shared) Sample(values []int, k int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current().Sample(values, k)
}

// Lock holds the source for the duration of fn, so that a whole evaluation draws an
// uninterrupted sequence even when other goroutines share the generator.
func (s *Shared) Lock(fn func(src domain.Source) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.current())
}

// current must be called with mu held.
func (s *Shared) current() domain.Source {
	if s.src == nil {
		panic(domain.ErrNoSource)
	}
	return s.src
}
