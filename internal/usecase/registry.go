package usecase

import (
	"github.com/nutrihub/backend/internal/domain"
)

// DefaultProviderOrder is the reliability-ordered fallback sequence:
// the authoritative government database first, commercial APIs with
// good data quality next, and the free, no-credential provider last as
// the guaranteed fallback.
var DefaultProviderOrder = []string{"usda", "nutritionix", "fatsecret", "openfoodfacts"}

// ProviderRegistry holds the registered adapters together with their
// configuration. It is read-only during a request; configuration
// changes take effect on the next registry build.
type ProviderRegistry struct {
	adapters map[string]domain.Provider
	configs  map[string]domain.ProviderConfig
	order    []string
}

// NewProviderRegistry builds a registry from provider configuration.
// Adapters are attached with Register.
func NewProviderRegistry(configs []domain.ProviderConfig) *ProviderRegistry {
	r := &ProviderRegistry{
		adapters: make(map[string]domain.Provider),
		configs:  make(map[string]domain.ProviderConfig),
		order:    DefaultProviderOrder,
	}
	for _, cfg := range configs {
		r.configs[cfg.Name] = cfg
	}
	return r
}

// Register attaches an adapter under its provider name.
func (r *ProviderRegistry) Register(p domain.Provider) {
	r.adapters[p.Name()] = p
}

// IsEnabled reports whether a provider is enabled and registered.
func (r *ProviderRegistry) IsEnabled(name string) bool {
	if _, ok := r.adapters[name]; !ok {
		return false
	}
	cfg, ok := r.configs[name]
	return ok && cfg.Enabled
}

// EnabledProviders returns the enabled provider names in default
// reliability order. Registered providers missing from the order list
// are appended at the end.
func (r *ProviderRegistry) EnabledProviders() []string {
	enabled := make([]string, 0, len(r.adapters))
	seen := make(map[string]bool, len(r.adapters))

	for _, name := range r.order {
		if r.IsEnabled(name) {
			enabled = append(enabled, name)
			seen[name] = true
		}
	}
	for name := range r.adapters {
		if !seen[name] && r.IsEnabled(name) {
			enabled = append(enabled, name)
		}
	}
	return enabled
}

// Names returns every registered provider name, enabled or not, in
// default order followed by any unlisted registrations.
func (r *ProviderRegistry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	seen := make(map[string]bool, len(r.adapters))

	for _, name := range r.order {
		if _, ok := r.adapters[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	for name := range r.adapters {
		if !seen[name] {
			names = append(names, name)
		}
	}
	return names
}

// Provider returns the adapter registered under name.
func (r *ProviderRegistry) Provider(name string) (domain.Provider, bool) {
	p, ok := r.adapters[name]
	return p, ok
}

// Config returns the configuration for name.
func (r *ProviderRegistry) Config(name string) (domain.ProviderConfig, bool) {
	cfg, ok := r.configs[name]
	return cfg, ok
}
