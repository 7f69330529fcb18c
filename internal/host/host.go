// Package host owns the live execution context of a page session: it loads
// sketches through the analyzer, keeps the session parameters and bridges
// parameter messages between the page and the sandbox.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/veetance/artifice/internal/notifier"
	"github.com/veetance/artifice/pkg/core"
)

// ErrSuperseded is returned by a load that finished after a newer load
// already installed its context.
var ErrSuperseded = errors.New("load superseded by a newer load")

// Analyzer converts fetched sketch text into a descriptor.
type Analyzer interface {
	Analyze(rawContent string) core.SketchDescriptor
}

// Config holds the collaborators of a Host.
type Config struct {
	Analyzer Analyzer
	Fetcher  Fetcher
	// Baseline seeds the session parameters. Defaults to core.DefaultBaseline.
	Baseline core.ParameterMap
	Logger   *slog.Logger
}

// Host owns exactly one execution context at a time.
type Host struct {
	analyzer Analyzer
	fetcher  Fetcher
	params   *SessionParameters
	events   *notifier.Notifier[Event]
	logger   *slog.Logger

	mu        sync.Mutex
	current   *ExecutionContext
	issued    uint64 // last ticket handed to a load
	installed uint64 // ticket of the current context
}

// New creates a Host.
func New(cfg Config) *Host {
	baseline := cfg.Baseline
	if baseline == nil {
		baseline = core.DefaultBaseline()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Host{
		analyzer: cfg.Analyzer,
		fetcher:  cfg.Fetcher,
		params:   NewSessionParameters(baseline),
		events:   notifier.New[Event](),
		logger:   logger.With("component", "host"),
	}
}

// LoadSketch fetches, analyzes and installs a sketch: fetch → analyze →
// merge parameters → replace the execution context.
//
// On fetch failure the error is logged and returned; session parameters and
// the current context are left untouched. Concurrent loads are ordered by
// start: a load that completes after a newer one has installed is dropped
// and returns ErrSuperseded.
func (h *Host) LoadSketch(ctx context.Context, ref string) (*ExecutionContext, error) {
	h.mu.Lock()
	h.issued++
	ticket := h.issued
	h.mu.Unlock()

	h.logger.Info("fetching sketch", "ref", ref, "generation", ticket)

	text, err := h.fetcher.Fetch(ctx, ref)
	if err != nil {
		h.logger.Error("failed to load sketch", "ref", ref, "error", err)
		return nil, err
	}

	desc := h.analyzer.Analyze(text)

	h.mu.Lock()
	// installed only equals a pending ticket after Clear.
	if ticket <= h.installed {
		h.mu.Unlock()
		h.logger.Warn("dropping superseded load", "ref", ref, "generation", ticket)
		return nil, fmt.Errorf("%w: %s", ErrSuperseded, ref)
	}
	h.params.Merge(desc.ParameterValues)
	ec := newExecutionContext(ticket, ref, desc, h.params.Snapshot())
	h.current = ec
	h.installed = ticket
	h.mu.Unlock()

	h.logger.Info("sketch loaded",
		"ref", ref,
		"context", ec.ID,
		"generation", ec.Generation,
		"parameters", len(ec.Parameters),
	)
	h.events.Broadcast(Event{Kind: EventLoaded, Context: ec})
	return ec, nil
}

// HandleMessage applies a message posted by a sandbox. Only sketchUpdate
// messages from the current context are accepted.
func (h *Host) HandleMessage(contextID string, msg Message) error {
	if msg.Type != MessageSketchUpdate {
		return fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == nil || h.current.ID != contextID {
		h.logger.Debug("ignoring message from stale context", "context", contextID)
		return ErrStaleContext
	}
	h.params.Merge(msg.Payload)
	return nil
}

// Update merges payload into the session parameters and forwards it to the
// live context as an update message.
func (h *Host) Update(payload core.ParameterMap) {
	h.mu.Lock()
	h.params.Merge(payload)
	cur := h.current
	h.mu.Unlock()

	if cur == nil {
		return
	}
	h.events.Broadcast(Event{
		Kind:    EventUpdate,
		Context: cur,
		Message: Message{Type: MessageUpdate, Payload: payload.Clone()},
	})
}

// Clear discards the live context without replacing it. Loads still in
// flight are superseded.
func (h *Host) Clear() {
	h.mu.Lock()
	h.current = nil
	h.installed = h.issued
	h.mu.Unlock()

	h.events.Broadcast(Event{Kind: EventCleared})
}

// Current returns the live execution context, or nil.
func (h *Host) Current() *ExecutionContext {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Lookup returns the live context when its ID matches.
func (h *Host) Lookup(contextID string) (*ExecutionContext, bool) {
	cur := h.Current()
	if cur == nil || cur.ID != contextID {
		return nil, false
	}
	return cur, true
}

// Listeners returns the number of event subscribers.
func (h *Host) Listeners() int {
	return h.events.Len()
}

// Params returns a snapshot of the session parameters.
func (h *Host) Params() core.ParameterMap {
	return h.params.Snapshot()
}

// Subscribe returns a channel of host events.
func (h *Host) Subscribe() chan Event {
	return h.events.Subscribe()
}

// Unsubscribe releases a channel returned by Subscribe.
func (h *Host) Unsubscribe(ch chan Event) {
	h.events.Unsubscribe(ch)
}
