// Package reference serves the FiCR vocabulary listing for the ontology
// reference pages. The vocabulary ships as an embedded YAML resource so it
// versions with the binary, not with the triple store.
package reference

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed reference.yaml
var referenceYAML []byte

type Vocabulary struct {
	Namespace          string     `yaml:"namespace" json:"namespace"`
	Classes            []Class    `yaml:"classes" json:"classes"`
	ObjectProperties   []Property `yaml:"objectProperties" json:"object_properties"`
	DatatypeProperties []Property `yaml:"datatypeProperties" json:"datatype_properties"`
}

type Class struct {
	Name       string   `yaml:"name" json:"name"`
	Label      string   `yaml:"label" json:"label"`
	Comment    string   `yaml:"comment" json:"comment"`
	SubClassOf []string `yaml:"subClassOf" json:"sub_class_of,omitempty"`
}

type Property struct {
	Name      string   `yaml:"name" json:"name"`
	Label     string   `yaml:"label" json:"label"`
	Comment   string   `yaml:"comment" json:"comment"`
	Domain    []string `yaml:"domain" json:"domain,omitempty"`
	Range     []string `yaml:"range" json:"range,omitempty"`
	InverseOf string   `yaml:"inverseOf" json:"inverse_of,omitempty"`
}

// Parse loads a vocabulary from YAML and checks term names are well formed
// and unique.
func Parse(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}

	seen := make(map[string]bool)
	check := func(name string) error {
		if name == "" {
			return fmt.Errorf("vocabulary term has no name")
		}
		if seen[name] {
			return fmt.Errorf("duplicate vocabulary term %q", name)
		}
		seen[name] = true
		return nil
	}

	for _, c := range v.Classes {
		if err := check(c.Name); err != nil {
			return nil, err
		}
	}
	for _, p := range v.ObjectProperties {
		if err := check(p.Name); err != nil {
			return nil, err
		}
	}
	for _, p := range v.DatatypeProperties {
		if err := check(p.Name); err != nil {
			return nil, err
		}
	}

	return &v, nil
}

// Load returns the embedded vocabulary.
func Load() (*Vocabulary, error) {
	return Parse(referenceYAML)
}
