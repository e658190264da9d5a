package calendar

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed providers.yaml
var defaultCatalog []byte

// ProviderInfo describes a calendar provider for clients choosing one.
type ProviderInfo struct {
	Name        string   `yaml:"name" json:"name"`
	DisplayName string   `yaml:"displayName" json:"displayName"`
	AuthURL     string   `yaml:"authUrl,omitempty" json:"authUrl,omitempty"`
	Scopes      []string `yaml:"scopes" json:"scopes"`
	Implemented bool     `yaml:"implemented" json:"implemented"`
}

// Catalog is the list of known providers.
type Catalog struct {
	Providers []ProviderInfo `yaml:"providers"`
}

// ParseCatalog decodes a YAML provider catalog.
func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse provider catalog: %w", err)
	}
	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			return Catalog{}, fmt.Errorf("provider catalog entry %d has no name", i)
		}
		if seen[name] {
			return Catalog{}, fmt.Errorf("provider catalog lists %q twice", name)
		}
		seen[name] = true
		c.Providers[i].Name = name
		if c.Providers[i].Scopes == nil {
			c.Providers[i].Scopes = []string{}
		}
	}
	return c, nil
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// Find returns the entry for name, compared case-insensitively.
func (c Catalog) Find(name string) (ProviderInfo, bool) {
	name = strings.ToLower(name)
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return ProviderInfo{}, false
}
