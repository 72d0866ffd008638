// Package registry keeps named expression presets ("fireball", "advantage") so callers can
// refer to a tree by name instead of shipping the whole document.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/dicetree/pkg/expr"
	"github.com/aretw0/dicetree/pkg/schema"
)

// ErrNotFound is returned by Lookup for unknown names.
var ErrNotFound = errors.New("preset not found")

// Registry manages the available presets.
type Registry struct {
	mu      sync.RWMutex
	presets map[string]expr.Node
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		presets: make(map[string]expr.Node),
	}
}

// Register adds a preset to the registry.
// If a preset with the same name exists, it is overwritten.
func (r *Registry) Register(name string, node expr.Node) error {
	if name == "" {
		return errors.New("preset name is required")
	}
	if node == nil {
		return fmt.Errorf("preset %q: nil expression", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presets[name] = node
	return nil
}

// Lookup returns the expression registered under name.
func (r *Registry) Lookup(name string) (expr.Node, error) {
	r.mu.RLock()
	node, ok := r.presets[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return node, nil
}

// Names lists the registered presets in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.presets))
	for name := range r.presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len reports the number of presets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.presets)
}

// LoadDir registers every .yaml, .yml and .json document in dir under its file name without
// the extension. Subdirectories are ignored. It returns the number of presets loaded.
func (r *Registry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read presets: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return loaded, fmt.Errorf("failed to read preset %s: %w", entry.Name(), err)
		}
		node, err := schema.Load(data)
		if err != nil {
			return loaded, fmt.Errorf("preset %s: %w", entry.Name(), err)
		}
		if err := r.Register(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())), node); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}
