package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParameterDefinition_Range(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		wantMin float64
		wantMax float64
	}{
		{name: "positive", value: 4, wantMin: 0, wantMax: 16},
		{name: "negative", value: -20, wantMin: -40, wantMax: 0},
		{name: "zero collapses", value: 0, wantMin: 0, wantMax: 0},
		{name: "fractional", value: 0.25, wantMin: 0, wantMax: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := NewParameterDefinition("speed", tt.value)
			assert.Equal(t, tt.value, def.DefaultValue)
			assert.Equal(t, tt.wantMin, def.Min)
			assert.Equal(t, tt.wantMax, def.Max)
		})
	}
}

func TestNewParameterDefinition_NegativeZeroSerializesAsZero(t *testing.T) {
	def := NewParameterDefinition("drift", 0)
	raw, err := json.Marshal(def)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"drift","min":0,"max":0,"defaultValue":0}`, string(raw))
}

func TestParameterMap_Merge(t *testing.T) {
	m := ParameterMap{"hue": 180, "saturation": 80}
	m.Merge(ParameterMap{"hue": 229, "speed": 4})

	assert.Equal(t, ParameterMap{"hue": 229, "saturation": 80, "speed": 4}, m)
}

func TestParameterMap_CloneIsIndependent(t *testing.T) {
	m := ParameterMap{"hue": 180}
	c := m.Clone()
	c["hue"] = 1

	assert.Equal(t, 180.0, m["hue"])
	assert.NotNil(t, ParameterMap(nil).Clone())
}

func TestSketchDescriptor_Parameter(t *testing.T) {
	d := SketchDescriptor{Parameters: []ParameterDefinition{
		NewParameterDefinition("radius", 50),
	}}

	p, ok := d.Parameter("radius")
	require.True(t, ok)
	assert.Equal(t, 200.0, p.Max)

	_, ok = d.Parameter("missing")
	assert.False(t, ok)
}
