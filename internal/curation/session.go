// Package curation drives the review of a sketch bank: each visitor session
// pairs a deck with a host, records every load and persists verdicts.
package curation

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strconv"
	"sync"

	"github.com/veetance/artifice/internal/bank"
	"github.com/veetance/artifice/internal/host"
	"github.com/veetance/artifice/pkg/core"
)

// CompleteReadout is shown once every sketch has been reviewed.
const CompleteReadout = "ALL FILES REVIEWED"

// Status is a snapshot of a session for display.
type Status struct {
	Current   string `json:"current"`
	Readout   string `json:"readout"`
	Remaining int    `json:"remaining"`
	Flagged   int    `json:"flagged"`
	Complete  bool   `json:"complete"`
}

// FlaggedLabel renders the flagged counter.
func (s Status) FlaggedLabel() string {
	return strconv.Itoa(s.Flagged) + " FLAGGED"
}

// Session is one visitor's curation run.
type Session struct {
	id     string
	host   *host.Host
	deck   *bank.Deck
	store  core.Store
	logger *slog.Logger

	// mu serializes curation actions so keep/kill clicks deal in order.
	mu       sync.Mutex
	ignited  bool
	complete bool
}

// NewSession creates a session. store may be nil.
func NewSession(id string, h *host.Host, deck *bank.Deck, store core.Store, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		id:     id,
		host:   h,
		deck:   deck,
		store:  store,
		logger: logger.With("component", "curation", "session", id),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Logger returns the session-scoped logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// Host returns the session's host.
func (s *Session) Host() *host.Host { return s.host }

// Ignite deals and loads the first sketch. Later calls are no-ops.
func (s *Session) Ignite(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ignited {
		return nil
	}
	s.ignited = true
	if hero := s.deck.Hero(); hero != "" {
		s.logger.Info("hero lock engaged", "ref", hero)
	}
	return s.advance(ctx)
}

// Keep moves on to the next sketch.
func (s *Session) Keep(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur := s.deck.Current(); cur != "" {
		s.persistVerdict(cur, core.VerdictKeep)
	}
	return s.advance(ctx)
}

// Kill flags the current sketch and moves on.
func (s *Session) Kill(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.deck.Current()
	if s.deck.Flag() {
		s.logger.Info("sketch flagged", "ref", cur, "flagged", len(s.deck.Export()))
		s.persistVerdict(cur, core.VerdictFlag)
	}
	return s.advance(ctx)
}

// Export returns the sketches flagged in this session.
func (s *Session) Export() []string {
	return s.deck.Export()
}

// Status returns the current display state.
func (s *Session) Status() Status {
	s.mu.Lock()
	complete := s.complete
	s.mu.Unlock()

	st := Status{
		Current:   s.deck.Current(),
		Remaining: s.deck.Remaining(),
		Flagged:   len(s.deck.Export()),
		Complete:  complete,
	}
	switch {
	case complete:
		st.Readout = CompleteReadout
	case st.Current != "":
		st.Readout = path.Base(st.Current)
	}
	return st
}

// Reload loads ref again when it is the session's current sketch.
func (s *Session) Reload(ctx context.Context, ref string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.deck.Current()
	if cur == "" || path.Clean(cur) != path.Clean(ref) {
		return false, nil
	}
	s.logger.Info("reloading edited sketch", "ref", cur)
	return true, s.load(ctx, cur)
}

// advance deals the next sketch, or clears the host when the deck is
// exhausted. Callers hold s.mu.
func (s *Session) advance(ctx context.Context) error {
	ref, err := s.deck.Next()
	if errors.Is(err, bank.ErrDeckExhausted) {
		s.logger.Info("curation complete")
		s.complete = true
		s.host.Clear()
		return nil
	}
	if err != nil {
		return err
	}

	s.logger.Info("igniting", "ref", ref, "remaining", s.deck.Remaining())
	return s.load(ctx, ref)
}

func (s *Session) load(ctx context.Context, ref string) error {
	ec, err := s.host.LoadSketch(ctx, ref)

	rec := &core.LoadRecord{SessionID: s.id, Source: ref}
	switch {
	case err == nil:
		rec.Status = core.LoadStatusLoaded
		rec.Generation = ec.Generation
		rec.ParameterCount = len(ec.Parameters)
	case errors.Is(err, host.ErrSuperseded):
		rec.Status = core.LoadStatusSuperseded
	default:
		rec.Status = core.LoadStatusFailed
		rec.Error = err.Error()
	}
	s.recordLoad(rec)

	return err
}

func (s *Session) recordLoad(rec *core.LoadRecord) {
	if s.store == nil {
		return
	}
	if err := s.store.RecordLoad(rec); err != nil {
		s.logger.Error("failed to record load", "ref", rec.Source, "error", err)
	}
}

func (s *Session) persistVerdict(ref string, v core.Verdict) {
	if s.store == nil {
		return
	}
	if err := s.store.SetVerdict(ref, v, s.id); err != nil {
		s.logger.Error("failed to persist verdict", "ref", ref, "verdict", v, "error", err)
	}
}
