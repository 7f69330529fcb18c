package host

import (
	"sync"

	"github.com/veetance/artifice/pkg/core"
)

// SessionParameters is the mutable parameter state of one page session.
// It is seeded with a baseline and shallow-merged on every load and update.
type SessionParameters struct {
	mu     sync.RWMutex
	values core.ParameterMap
}

// NewSessionParameters creates session parameters seeded from baseline.
func NewSessionParameters(baseline core.ParameterMap) *SessionParameters {
	return &SessionParameters{values: baseline.Clone()}
}

// Merge applies patch as a shallow override.
func (s *SessionParameters) Merge(patch core.ParameterMap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values.Merge(patch)
}

// Snapshot returns a copy of the current values.
func (s *SessionParameters) Snapshot() core.ParameterMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Clone()
}

// Get returns the current value of one parameter.
func (s *SessionParameters) Get(name string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}
