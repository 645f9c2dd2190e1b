package embedding

import (
	"context"
	"sort"
	"sync"

	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
)

// Registry manages named embedding providers.
type Registry struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider under name.
func (r *Registry) Register(name string, p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return lerrors.EmbeddingErrorf(lerrors.ErrProviderAlreadyRegistered,
			"embedding provider %q already registered", name)
	}
	r.providers[name] = p
	return nil
}

// Get retrieves a provider by name.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Lookup is Get with a typed error for unknown names.
func (r *Registry) Lookup(name string) (Provider, error) {
	p, ok := r.Get(name)
	if !ok {
		return nil, lerrors.EmbeddingErrorf(lerrors.ErrProviderNotFound,
			"embedding provider %q is not registered", name).
			WithContext("provider", name)
	}
	return p, nil
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, 0, len(r.providers))
	for name := range r.providers {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Status returns availability for every provider.
func (r *Registry) Status(ctx context.Context) map[string]Status {
	// Copy first; IsAvailable may do network calls.
	r.mu.RLock()
	providers := make(map[string]Provider, len(r.providers))
	for name, p := range r.providers {
		providers[name] = p
	}
	r.mu.RUnlock()

	result := make(map[string]Status, len(providers))
	for name, p := range providers {
		result[name] = Status{
			Name:      name,
			Provider:  p.Name(),
			Available: p.IsAvailable(ctx),
			Dimension: p.Dimension(),
		}
	}
	return result
}

// Status represents provider status.
type Status struct {
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	Available bool   `json:"available"`
	Dimension int    `json:"dimension"`
}
