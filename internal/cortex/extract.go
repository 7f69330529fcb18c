package cortex

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/veetance/artifice/pkg/core"
)

// ParamBag is the name of the injected parameter object inside the sandbox.
const ParamBag = "p"

// entryPoint is the function the visual runtime calls once it is ready.
const entryPoint = "setup"

// minNameLength excludes loop counters and coordinates (i, x, y, dx).
const minNameLength = 3

// declPattern matches one top-level numeric declaration per line:
// `let NAME = NUMBER` or `var NAME = NUMBER`, optionally semicolon-terminated.
var declPattern = regexp.MustCompile(`(?m)^(?:let|var)[ \t]+([a-zA-Z_][a-zA-Z0-9_]*)[ \t]*=[ \t]*(-?\d+(?:\.\d+)?)[ \t]*;?[ \t]*\r?$`)

// Extraction is the result of scanning raw sketch code for parameters.
type Extraction struct {
	Code   string
	Values core.ParameterMap
	Defs   []core.ParameterDefinition
}

type declaration struct {
	span
	name  string
	value float64
}

type edit struct {
	span
	text string
}

// ExtractParameters finds top-level numeric declarations, lifts them into
// parameters and rewrites the code to read them from the parameter bag.
func (a *Analyzer) ExtractParameters(rawCode string) Extraction {
	out := Extraction{
		Code:   rawCode,
		Values: core.ParameterMap{},
		Defs:   []core.ParameterDefinition{},
	}

	src := []byte(rawCode)
	scan, err := scanSource(context.Background(), src)
	if err != nil {
		a.logger.Warn("source scan failed, carrying code through", "error", err)
		out.Code = a.repair(rawCode, strings.Contains(rawCode, "function "+entryPoint))
		return out
	}

	decls := findDeclarations(rawCode, scan)

	var edits []edit
	extracted := make(map[string]struct{})
	for _, d := range decls {
		if _, seen := extracted[d.name]; !seen {
			value := d.value
			if forced, ok := brandValue(d.name, a.palette); ok {
				value = forced
			}
			extracted[d.name] = struct{}{}
			out.Values[d.name] = value
			out.Defs = append(out.Defs, core.NewParameterDefinition(d.name, value))
		}
		edits = append(edits, edit{
			span: d.span,
			text: fmt.Sprintf("// %s extracted to %s.%s", d.name, ParamBag, d.name),
		})
	}

	if len(out.Defs) > 0 {
		a.logger.Debug("identified control variables", "count", len(out.Defs))
		edits = append(edits, usageEdits(scan, extracted, edits)...)
	}

	code := applyEdits(rawCode, edits)

	for _, patch := range a.patches {
		if patch.matches(scan) {
			a.logger.Debug("applying signature patch", "patch", patch.Name)
			code = patch.Apply(code)
		}
	}

	out.Code = a.repair(code, scan.entry)
	return out
}

// findDeclarations returns every declaration line in source order, skipping
// short names and matches that begin inside a comment or string literal.
func findDeclarations(code string, scan *scanResult) []declaration {
	var decls []declaration
	for _, m := range declPattern.FindAllStringSubmatchIndex(code, -1) {
		name := code[m[2]:m[3]]
		if len(name) < minNameLength {
			continue
		}
		if scan.inOpaque(m[0]) {
			continue
		}
		value, err := strconv.ParseFloat(code[m[4]:m[5]], 64)
		if err != nil {
			continue
		}
		end := m[1]
		if end > m[0] && code[end-1] == '\r' {
			end--
		}
		decls = append(decls, declaration{span: span{start: m[0], end: end}, name: name, value: value})
	}
	return decls
}

// usageEdits rewrites every expression-position read of an extracted name
// into a parameter bag access. Member properties and object-literal keys are
// not identifier nodes, so they never reach this point. Reads of a nested
// binding with the same name keep reading that binding.
func usageEdits(scan *scanResult, extracted map[string]struct{}, decls []edit) []edit {
	var edits []edit
	for _, ref := range scan.refs {
		if _, ok := extracted[ref.name]; !ok {
			continue
		}
		if insideAny(ref.span, decls) || scan.shadowed(ref) {
			continue
		}
		access := ParamBag + "." + ref.name
		if ref.shorthand {
			edits = append(edits, edit{span: ref.span, text: ref.name + ": " + access})
			continue
		}
		edits = append(edits, edit{span: ref.span, text: access})
	}
	return edits
}

func insideAny(s span, edits []edit) bool {
	for _, e := range edits {
		if e.overlaps(s) {
			return true
		}
	}
	return false
}

// applyEdits splices non-overlapping edits into code.
func applyEdits(code string, edits []edit) string {
	if len(edits) == 0 {
		return code
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var b strings.Builder
	b.Grow(len(code) + len(edits)*8)
	pos := 0
	for _, e := range edits {
		if e.start < pos {
			continue
		}
		b.WriteString(code[pos:e.start])
		b.WriteString(e.text)
		pos = e.end
	}
	b.WriteString(code[pos:])
	return b.String()
}

// repair wraps code lacking an entry point in a synthesized setup function
// that creates a full-viewport canvas.
func (a *Analyzer) repair(code string, hasEntry bool) string {
	if hasEntry {
		return code
	}
	a.logger.Debug("injecting default setup environment")
	return "function setup() { createCanvas(windowWidth, windowHeight); \n " + code + " \n}"
}
