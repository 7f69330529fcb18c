// Package cortex turns arbitrary sketch text into a normalized SketchDescriptor.
//
// Input is either a structured document (JSON with a code field and optional
// parameter definitions) or free-form sketch code. Free-form code is scanned
// for top-level numeric declarations, which become tunable parameters read
// from an injected parameter bag.
package cortex

import (
	"encoding/json"
	"log/slog"

	"github.com/veetance/artifice/pkg/core"
)

// Analyzer converts raw sketch content into descriptors.
// It holds no per-call state and is safe for concurrent use.
type Analyzer struct {
	palette  core.Palette
	patches  []Patch
	patched  bool // patches set explicitly
	validate bool
	logger   *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithPalette sets the brand palette forced onto colour parameters.
// The built-in archipelago patch follows the palette hue.
func WithPalette(p core.Palette) Option {
	return func(a *Analyzer) {
		a.palette = p
	}
}

// WithPatches replaces the signature patches, regardless of option order.
func WithPatches(patches ...Patch) Option {
	return func(a *Analyzer) {
		a.patches = patches
		a.patched = true
	}
}

// WithValidation toggles the syntax check of rewritten code.
func WithValidation(enabled bool) Option {
	return func(a *Analyzer) {
		a.validate = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger.With("component", "cortex")
		}
	}
}

// New creates an Analyzer with the brand palette and validation enabled.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		palette:  core.DefaultPalette(),
		validate: true,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	if !a.patched {
		a.patches = []Patch{ArchipelagoPatch(a.palette.Hue)}
	}
	return a
}

// document is the structured sketch format. Every field stays raw and is
// decoded on its own, so one malformed entry does not discard the document.
type document struct {
	Code            json.RawMessage `json:"code"`
	Parameters      json.RawMessage `json:"parameters"`
	ParameterValues json.RawMessage `json:"parameterValues"`
}

// Analyze produces a descriptor from raw content. Structured documents are
// used as-is when they carry parameter definitions; everything else goes
// through parameter extraction.
func (a *Analyzer) Analyze(rawContent string) core.SketchDescriptor {
	a.logger.Debug("reading file structure", "bytes", len(rawContent))

	desc, ok := a.analyzeStructured(rawContent)
	if !ok {
		ext := a.ExtractParameters(rawContent)
		desc = core.SketchDescriptor{
			Code:            ext.Code,
			ParameterValues: ext.Values,
			Parameters:      ext.Defs,
		}
	}

	if a.validate {
		desc.Diagnostics = Validate(desc.Code)
		if len(desc.Diagnostics) > 0 {
			a.logger.Warn("rewritten code has syntax errors", "count", len(desc.Diagnostics), "first", desc.Diagnostics[0])
		}
	}
	return desc
}

// analyzeStructured handles the document path. It reports false when the
// content is not a document or its code field is missing, empty or not a
// string; the caller then falls back to raw extraction on the original text.
// Malformed parameter entries are dropped.
func (a *Analyzer) analyzeStructured(rawContent string) (core.SketchDescriptor, bool) {
	var doc document
	if err := json.Unmarshal([]byte(rawContent), &doc); err != nil {
		return core.SketchDescriptor{}, false
	}

	var code string
	if len(doc.Code) == 0 || json.Unmarshal(doc.Code, &code) != nil || code == "" {
		return core.SketchDescriptor{}, false
	}

	params := a.decodeParameters(doc.Parameters)
	if len(params) == 0 {
		a.logger.Debug("document missing parameter definitions, extracting")
		ext := a.ExtractParameters(code)
		return core.SketchDescriptor{
			Code:            ext.Code,
			ParameterValues: ext.Values,
			Parameters:      ext.Defs,
			Structured:      true,
		}, true
	}

	values := a.decodeValues(doc.ParameterValues)
	if values == nil {
		values = make(core.ParameterMap, len(params))
		for _, p := range params {
			values[p.Name] = p.DefaultValue
		}
	}

	return core.SketchDescriptor{
		Code:            code,
		ParameterValues: values,
		Parameters:      params,
		Structured:      true,
	}, true
}

func (a *Analyzer) decodeParameters(raw json.RawMessage) []core.ParameterDefinition {
	var entries []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &entries) != nil {
		return nil
	}

	params := make([]core.ParameterDefinition, 0, len(entries))
	for i, entry := range entries {
		var p core.ParameterDefinition
		if err := json.Unmarshal(entry, &p); err != nil || p.Name == "" {
			a.logger.Warn("skipping malformed parameter definition", "index", i)
			continue
		}
		params = append(params, p)
	}
	return params
}

// decodeValues returns nil when the field is absent, null or not an object.
func (a *Analyzer) decodeValues(raw json.RawMessage) core.ParameterMap {
	var entries map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &entries) != nil || entries == nil {
		return nil
	}

	values := make(core.ParameterMap, len(entries))
	for name, entry := range entries {
		var v float64
		if err := json.Unmarshal(entry, &v); err != nil {
			a.logger.Warn("skipping malformed parameter value", "name", name)
			continue
		}
		values[name] = v
	}
	return values
}
