package core

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a store lookup matches nothing.
var ErrNotFound = errors.New("not found")

// LoadStatus is the outcome of one sketch load.
type LoadStatus string

// Load outcomes.
const (
	LoadStatusLoaded     LoadStatus = "loaded"
	LoadStatusFailed     LoadStatus = "failed"
	LoadStatusSuperseded LoadStatus = "superseded"
)

// Verdict is a curation decision on a sketch.
type Verdict string

// Curation verdicts.
const (
	VerdictKeep Verdict = "keep"
	VerdictFlag Verdict = "flag"
)

// Valid reports whether v is a known verdict.
func (v Verdict) Valid() bool {
	return v == VerdictKeep || v == VerdictFlag
}

// LoadRecord is one entry of the load history.
type LoadRecord struct {
	ID             string     `json:"id" yaml:"id"`
	SessionID      string     `json:"session_id" yaml:"session_id"`
	Source         string     `json:"source" yaml:"source"`
	Generation     uint64     `json:"generation" yaml:"generation"`
	ParameterCount int        `json:"parameter_count" yaml:"parameter_count"`
	Status         LoadStatus `json:"status" yaml:"status"`
	Error          string     `json:"error,omitempty" yaml:"error,omitempty"`
	LoadedAt       time.Time  `json:"loaded_at" yaml:"loaded_at"`
}

// VerdictRecord is the latest verdict on one sketch.
type VerdictRecord struct {
	Source    string    `json:"source" yaml:"source"`
	Verdict   Verdict   `json:"verdict" yaml:"verdict"`
	SessionID string    `json:"session_id" yaml:"session_id"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Store defines the interface for persisted curation state.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// Load history
	RecordLoad(rec *LoadRecord) error
	ListLoads(limit int) ([]*LoadRecord, error)

	// Verdicts
	SetVerdict(source string, verdict Verdict, sessionID string) error
	GetVerdict(source string) (*VerdictRecord, error)
	ListVerdicts(verdict Verdict) ([]*VerdictRecord, error)
}
