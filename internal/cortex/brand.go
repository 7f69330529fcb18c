package cortex

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/veetance/artifice/pkg/core"
)

// brandValue returns the forced brand value for colour-semantic parameter
// names. One-letter abbreviations never reach this point (length rule).
func brandValue(name string, palette core.Palette) (float64, bool) {
	switch lower := strings.ToLower(name); {
	case lower == "hue":
		return palette.Hue, true
	case lower == "saturation" || name == "sat":
		return palette.Saturation, true
	case lower == "brightness" || name == "bri":
		return palette.Brightness, true
	}
	return 0, false
}

// Rewrite is one pattern substitution applied by a Patch.
type Rewrite struct {
	Pattern *regexp.Regexp
	Replace string
}

// Patch is a content-specific rewrite keyed on an explicit identifier
// allowlist. It applies only when every marker is present as an identifier or
// property name in the parsed source.
type Patch struct {
	Name     string
	Markers  []string
	Rewrites []Rewrite
}

// matches reports whether all markers are present in the scanned source.
func (p Patch) matches(res *scanResult) bool {
	return len(p.Markers) > 0 && res.hasNames(p.Markers...)
}

// Apply runs every rewrite of the patch over code.
func (p Patch) Apply(code string) string {
	for _, rw := range p.Rewrites {
		code = rw.Pattern.ReplaceAllString(code, rw.Replace)
	}
	return code
}

// ArchipelagoPatch pins the terrain sketch's hard-coded hue to the brand hue.
// The sketch is recognised by its isoAngleX and terrain identifiers.
func ArchipelagoPatch(hue float64) Patch {
	h := strconv.FormatFloat(hue, 'f', -1, 64)
	return Patch{
		Name:    "archipelago",
		Markers: []string{"isoAngleX", "terrain"},
		Rewrites: []Rewrite{
			{
				Pattern: regexp.MustCompile(`let\s+baseHue\s*=\s*\d+\s*;?`),
				Replace: fmt.Sprintf("let baseHue = %s;", h),
			},
			{
				Pattern: regexp.MustCompile(`stroke\s*\(\s*baseHue`),
				Replace: "stroke(" + h,
			},
			{
				Pattern: regexp.MustCompile(`stroke\s*\(\s*hue\s*%\s*360`),
				Replace: "stroke(" + h,
			},
		},
	}
}
