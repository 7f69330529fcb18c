// Package artifice provides the curation page, its live update stream and
// the endpoints bridging the sandboxed sketch to its host.
package artifice

import "github.com/veetance/artifice/pkg/core"

// Element ids patched over SSE.
const (
	StageID   = "artifice-stage"
	ReadoutID = "artifice-readout"
	TuningID  = "artifice-tuning"
)

// sessionName is the cookie holding the visitor's page session id.
const sessionName = "artifice"

// MessageSignals is the body relayed by the bridge script for every
// sketchUpdate posted by the sandbox.
type MessageSignals struct {
	Context string            `json:"context"`
	Payload core.ParameterMap `json:"payload"`
}

// TuningSignals carries outer-page parameter edits.
type TuningSignals struct {
	Params core.ParameterMap `json:"params"`
}
