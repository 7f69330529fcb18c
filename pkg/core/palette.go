package core

// Palette holds the brand values forced onto colour parameters.
type Palette struct {
	Hue        float64 `json:"hue" koanf:"hue"`
	Saturation float64 `json:"saturation" koanf:"saturation"`
	Brightness float64 `json:"brightness" koanf:"brightness"`
}

// Brand palette constants (deep blue-purple, ~#4561cc).
const (
	BrandHue        = 229
	BrandSaturation = 90
	BrandBrightness = 100
)

// DefaultPalette returns the brand palette.
func DefaultPalette() Palette {
	return Palette{
		Hue:        BrandHue,
		Saturation: BrandSaturation,
		Brightness: BrandBrightness,
	}
}

// DefaultBaseline returns the session parameters every Host starts from.
func DefaultBaseline() ParameterMap {
	return ParameterMap{
		"hue":        180,
		"saturation": 80,
		"brightness": 100,
	}
}
