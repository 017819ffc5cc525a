package material

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Definition is the authoring form of a material. Cross references are by
// name and resolved when the registry closes.
type Definition struct {
	Name         string        `yaml:"name"`
	Kind         string        `yaml:"kind"`
	Color        [3]uint8      `yaml:"color"`
	ColorJitter  uint8         `yaml:"color_jitter,omitempty"`
	Density      float64       `yaml:"density"`
	HeatCapacity float64       `yaml:"heat_capacity"`
	Conductivity float64       `yaml:"conductivity"`
	HeatsInto    string        `yaml:"heats_into,omitempty"`
	HeatsAt      float64       `yaml:"heats_at,omitempty"`
	CoolsInto    string        `yaml:"cools_into,omitempty"`
	CoolsAt      float64       `yaml:"cools_at,omitempty"`
	Dispersion   int           `yaml:"dispersion,omitempty"`
	Flammability float64       `yaml:"flammability,omitempty"`
	Dissipation  float64       `yaml:"dissipation,omitempty"`
	Static       bool          `yaml:"static,omitempty"`
	Inertia      float64       `yaml:"inertia,omitempty"`
	BurnsInto    string        `yaml:"burns_into,omitempty"`
	Temperature  float64       `yaml:"temperature,omitempty"`
	Reactions    []ReactionDef `yaml:"reactions,omitempty"`
}

type ReactionDef struct {
	With     string  `yaml:"with"`
	Produces string  `yaml:"produces"`
	Rate     float64 `yaml:"rate"`
}

type document struct {
	Materials []Definition `yaml:"materials"`
}

// DecodeYAML reads a `materials:` document.
func DecodeYAML(r io.Reader) ([]Definition, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode materials: %w", err)
	}
	return doc.Materials, nil
}

// LoadYAML registers every definition of a `materials:` document. The
// registry must still be open.
func LoadYAML(r io.Reader, reg *Registry) error {
	defs, err := DecodeYAML(r)
	if err != nil {
		return err
	}
	for _, d := range defs {
		if _, err := ParseKind(d.Kind); err != nil {
			return fmt.Errorf("material %q: %w", d.Name, err)
		}
		if _, dup := reg.Lookup(d.Name); dup {
			return fmt.Errorf("%w: %q", ErrDuplicateMaterial, d.Name)
		}
		reg.Register(d)
	}
	return nil
}
