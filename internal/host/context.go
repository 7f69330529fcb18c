package host

import (
	"time"

	"github.com/google/uuid"

	"github.com/veetance/artifice/pkg/core"
)

// ExecutionContext is one isolated runtime hosting a transformed sketch.
// It is built once per load and never mutated; a new load replaces it.
type ExecutionContext struct {
	// ID correlates messages from the sandbox with this context.
	ID         string
	Generation uint64
	Source     string
	Code       string
	// Params is the session parameter snapshot injected at construction.
	Params      core.ParameterMap
	Parameters  []core.ParameterDefinition
	Diagnostics []string
	CreatedAt   time.Time
}

func newExecutionContext(gen uint64, source string, desc core.SketchDescriptor, params core.ParameterMap) *ExecutionContext {
	return &ExecutionContext{
		ID:          uuid.NewString(),
		Generation:  gen,
		Source:      source,
		Code:        desc.Code,
		Params:      params,
		Parameters:  desc.Parameters,
		Diagnostics: desc.Diagnostics,
		CreatedAt:   time.Now().UTC(),
	}
}
