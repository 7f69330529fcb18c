// Package core defines the shared language of the Artifice system.
//
// This package contains:
//   - Domain entities (SketchDescriptor, ParameterDefinition, LoadRecord)
//   - Value types (ParameterMap, Palette, Verdict)
//   - Service interfaces (Store)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
