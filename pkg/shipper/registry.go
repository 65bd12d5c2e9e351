package shipper

import (
	"fmt"
	"sync"
)

// Registry holds carriers in registration order.
//
// Registering a name twice replaces the earlier provider in place, so the
// last registration wins and ordering is unchanged.
type Registry struct {
	order     []Provider
	providers map[string]int
	mu        sync.RWMutex
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]int),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.providers[p.Name()]; ok {
		r.order[i] = p
		return
	}
	r.providers[p.Name()] = len(r.order)
	r.order = append(r.order, p)
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.providers[name]
	if !ok {
		return nil, false
	}
	return r.order[i], true
}

// Lookup is Get with an error for unknown names.
func (r *Registry) Lookup(name string) (Provider, error) {
	p, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return p, nil
}

// All returns all registered providers in registration order.
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Provider, len(r.order))
	copy(result, r.order)
	return result
}

// Enabled returns the providers switched on by cfg. With no configuration
// at all every provider is returned.
func (r *Registry) Enabled(cfg ProvidersConfig) []Provider {
	all := r.All()
	if len(cfg) == 0 {
		return all
	}
	result := make([]Provider, 0, len(all))
	for _, p := range all {
		if p.IsEnabled(cfg) {
			result = append(result, p)
		}
	}
	return result
}

// Names returns the names of all registered providers in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.order))
	for _, p := range r.order {
		names = append(names, p.Name())
	}
	return names
}

// Count returns the number of registered providers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// ProviderStatus is what the registry knows about one carrier.
type ProviderStatus struct {
	Name               string `json:"name"`
	Enabled            bool   `json:"enabled"`
	CredentialsPresent bool   `json:"credentialsPresent"`
}

// Status reports every registered carrier in order. Carriers that cannot
// report credentials are assumed to have them.
func (r *Registry) Status(cfg ProvidersConfig) []ProviderStatus {
	all := r.All()
	out := make([]ProviderStatus, 0, len(all))
	for _, p := range all {
		st := ProviderStatus{
			Name:               p.Name(),
			Enabled:            len(cfg) == 0 || p.IsEnabled(cfg),
			CredentialsPresent: true,
		}
		if cr, ok := p.(CredentialReporter); ok {
			st.CredentialsPresent = cr.HasCredentials()
		}
		out = append(out, st)
	}
	return out
}
