package curation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/veetance/artifice/internal/bank"
	"github.com/veetance/artifice/internal/host"
	"github.com/veetance/artifice/pkg/core"
)

// DefaultIdleTTL is how long a session without live page connections is
// kept before Sweep discards it.
const DefaultIdleTTL = 30 * time.Minute

// Config holds what every new session is built from.
type Config struct {
	// Sources lists the sketches dealt to a new session.
	Sources  func() ([]string, error)
	Hero     string
	Analyzer host.Analyzer
	Fetcher  host.Fetcher
	Baseline core.ParameterMap
	Store    core.Store
	Logger   *slog.Logger

	// IdleTTL defaults to DefaultIdleTTL.
	IdleTTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Registry maps page session ids to curation sessions.
type Registry struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	seen     map[string]time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Registry{
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*Session),
		seen:     make(map[string]time.Time),
	}
}

// Get returns the session for id and marks it as seen.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if ok {
		r.seen[id] = r.cfg.Now()
	}
	return s, ok
}

// GetOrCreate returns the session for id, creating it with a fresh deck
// and host on first use.
func (r *Registry) GetOrCreate(id string) (*Session, error) {
	if s, ok := r.Get(id); ok {
		return s, nil
	}

	var sources []string
	if r.cfg.Hero == "" && r.cfg.Sources != nil {
		var err error
		if sources, err = r.cfg.Sources(); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		r.seen[id] = r.cfg.Now()
		return s, nil
	}

	var opts []bank.DeckOption
	if r.cfg.Hero != "" {
		opts = append(opts, bank.WithHero(r.cfg.Hero))
	}
	h := host.New(host.Config{
		Analyzer: r.cfg.Analyzer,
		Fetcher:  r.cfg.Fetcher,
		Baseline: r.cfg.Baseline,
		Logger:   r.logger.With("session", id),
	})
	s := NewSession(id, h, bank.NewDeck(sources, opts...), r.cfg.Store, r.logger)
	r.sessions[id] = s
	r.seen[id] = r.cfg.Now()
	r.logger.Debug("session created", "session", id, "sketches", len(sources))
	return s, nil
}

// Lookup finds the live execution context with contextID in any session.
func (r *Registry) Lookup(contextID string) (*host.ExecutionContext, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if ec, ok := s.host.Lookup(contextID); ok {
			return ec, true
		}
	}
	return nil, false
}

// Reload reloads ref in every session currently showing it. It is the
// bank watcher callback.
func (r *Registry) Reload(ctx context.Context, ref string) {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	for _, s := range sessions {
		if _, err := s.Reload(ctx, ref); err != nil {
			r.logger.Error("reload failed", "session", s.ID(), "ref", ref, "error", err)
		}
	}
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep discards sessions that have had no page connection and no request
// for longer than the idle TTL. It returns the number discarded.
func (r *Registry) Sweep() int {
	now := r.cfg.Now()

	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.host.Listeners() > 0 {
			r.seen[id] = now
			continue
		}
		if now.Sub(r.seen[id]) <= r.cfg.IdleTTL {
			continue
		}
		delete(r.sessions, id)
		delete(r.seen, id)
		idle = append(idle, s)
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.host.Clear()
		r.logger.Debug("session evicted", "session", s.ID())
	}
	return len(idle)
}

// Run sweeps idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}
