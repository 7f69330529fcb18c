package core

import "maps"

// ParameterMap holds the current value of each named sketch parameter.
type ParameterMap map[string]float64

// Clone returns an independent copy of the map. A nil map clones to an empty one.
func (m ParameterMap) Clone() ParameterMap {
	out := make(ParameterMap, len(m))
	maps.Copy(out, m)
	return out
}

// Merge applies a shallow override: keys in patch are added or overwritten,
// unrelated keys are preserved.
func (m ParameterMap) Merge(patch ParameterMap) {
	maps.Copy(m, patch)
}

// ParameterDefinition describes one tunable numeric control.
// Definitions are created once per extraction pass and never mutated.
type ParameterDefinition struct {
	Name         string  `json:"name" yaml:"name"`
	Min          float64 `json:"min" yaml:"min"`
	Max          float64 `json:"max" yaml:"max"`
	DefaultValue float64 `json:"defaultValue" yaml:"defaultValue"`
}

// NewParameterDefinition derives the tuning range from the default value:
// positive defaults span [0, v*4], everything else spans [v*2, 0].
func NewParameterDefinition(name string, value float64) ParameterDefinition {
	def := ParameterDefinition{Name: name, DefaultValue: value}
	if value > 0 {
		def.Min, def.Max = 0, value*4
	} else {
		def.Min, def.Max = value*2, 0
	}
	// -0 from 0*2 would serialize as "-0"
	if def.Min == 0 {
		def.Min = 0
	}
	return def
}

// SketchDescriptor is the normalized result of analyzing a sketch.
type SketchDescriptor struct {
	Code            string                `json:"code" yaml:"code"`
	ParameterValues ParameterMap          `json:"parameterValues" yaml:"parameterValues"`
	Parameters      []ParameterDefinition `json:"parameters" yaml:"parameters"`

	// Structured is true when the descriptor came from a pre-structured document.
	Structured bool `json:"-" yaml:"-"`

	// Diagnostics carries non-fatal syntax findings on the rewritten code.
	Diagnostics []string `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// Parameter returns the definition with the given name.
func (d *SketchDescriptor) Parameter(name string) (ParameterDefinition, bool) {
	for _, p := range d.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterDefinition{}, false
}
