package hooks

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Provider builds the catalog for one game version. Providers run at most
// once per registry; the built catalog is cached.
type Provider func() (*Catalog, error)

// Registry maps game version keys to catalog providers. Registration is
// explicit; there is no discovery.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	built     map[string]*Catalog
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		built:     make(map[string]*Catalog),
	}
}

// Register binds a version key to a provider. Registering the same key again
// replaces the provider and drops any cached catalog.
func (r *Registry) Register(version string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[version] = p
	delete(r.built, version)
}

// Versions returns the registered version keys, sorted.
func (r *Registry) Versions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.providers))
	for v := range r.providers {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the catalog for a version, building it on first use. An
// unregistered version is an error naming the known versions.
func (r *Registry) Resolve(version string) (*Catalog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.built[version]; ok {
		return c, nil
	}
	p, ok := r.providers[version]
	if !ok {
		known := make([]string, 0, len(r.providers))
		for v := range r.providers {
			known = append(known, v)
		}
		sort.Strings(known)
		return nil, fmt.Errorf("unknown catalog version %q (registered: %s)", version, strings.Join(known, ", "))
	}

	c, err := p()
	if err != nil {
		return nil, fmt.Errorf("building catalog %q: %w", version, err)
	}
	r.built[version] = c
	return c, nil
}
