package core

import (
	"fmt"
	"sort"
	"strings"
)

// Plugin describes a species module that contributes seed catalogs and rules.
type Plugin interface {
	Name() string
	Version() string
	Register(registry *PluginRegistry) error
}

// PluginRegistry accumulates plugin contributions during registration.
type PluginRegistry struct {
	rules   []Rule
	species map[string]Species
	order   []string
}

// NewPluginRegistry constructs a plugin registry.
func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{species: make(map[string]Species)}
}

// RegisterRule adds an in-transaction rule contributed by the plugin.
func (r *PluginRegistry) RegisterRule(rule Rule) {
	if rule == nil {
		return
	}
	r.rules = append(r.rules, rule)
}

// RegisterSpecies stores a seed catalog. Slugs must be unique per plugin.
func (r *PluginRegistry) RegisterSpecies(species Species) error {
	slug := strings.TrimSpace(species.Slug)
	if slug == "" {
		return fmt.Errorf("species slug required")
	}
	if _, exists := r.species[slug]; exists {
		return fmt.Errorf("species %s already registered", slug)
	}
	species.Slug = slug
	r.species[slug] = species.Clone()
	r.order = append(r.order, slug)
	return nil
}

// Rules returns a copy of registered rules.
func (r *PluginRegistry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Species returns the seed catalogs in registration order.
func (r *PluginRegistry) Species() []Species {
	out := make([]Species, 0, len(r.order))
	for _, slug := range r.order {
		out = append(out, r.species[slug].Clone())
	}
	return out
}

// PluginMetadata summarizes an installed plugin.
type PluginMetadata struct {
	Name    string
	Version string
	Species []string
	Rules   []string
}

func newPluginMetadata(plugin Plugin, registry *PluginRegistry) PluginMetadata {
	meta := PluginMetadata{
		Name:    plugin.Name(),
		Version: plugin.Version(),
		Species: append([]string(nil), registry.order...),
	}
	for _, rule := range registry.rules {
		meta.Rules = append(meta.Rules, rule.Name())
	}
	sort.Strings(meta.Rules)
	return meta
}
