// Package queries holds the preset SPARQL catalog for the Query Lab and the
// report service. Query text lives in an embedded YAML resource rather than
// string constants so consumers can be tested against fixture catalogs.
package queries

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Keys of the presets the report service depends on.
const (
	KeyGlobalCompliance = "global-compliance"
	KeyElementDetail    = "element-detail"
	KeyRiskConfidence   = "risk-confidence"
)

//go:embed catalog.yaml
var catalogYAML []byte

type Catalog struct {
	Prefixes string  `yaml:"prefixes" json:"-"`
	Groups   []Group `yaml:"groups" json:"groups"`
}

type Group struct {
	Category string `yaml:"category" json:"category"`
	Queries  []Def  `yaml:"queries" json:"queries"`
}

type Def struct {
	Key         string `yaml:"key" json:"key"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description" json:"description"`
	Query       string `yaml:"query" json:"query"`
}

// Parse loads a catalog from YAML and prepends the shared prefix block to
// every query.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse query catalog: %w", err)
	}

	seen := make(map[string]bool)
	for gi := range c.Groups {
		for qi := range c.Groups[gi].Queries {
			q := &c.Groups[gi].Queries[qi]
			if q.Key == "" {
				return nil, fmt.Errorf("query %q has no key", q.Label)
			}
			if seen[q.Key] {
				return nil, fmt.Errorf("duplicate query key %q", q.Key)
			}
			seen[q.Key] = true
			q.Query = c.Prefixes + "\n" + q.Query
		}
	}

	return &c, nil
}

// Load returns the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(catalogYAML)
}

// ByKey looks up the full query text of a preset.
func (c *Catalog) ByKey(key string) (Def, bool) {
	for _, g := range c.Groups {
		for _, q := range g.Queries {
			if q.Key == key {
				return q, true
			}
		}
	}
	return Def{}, false
}
