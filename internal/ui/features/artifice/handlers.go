package artifice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/veetance/artifice/internal/curation"
	"github.com/veetance/artifice/internal/host"
	"github.com/veetance/artifice/internal/sandbox"
)

// Handlers provides HTTP handlers for the artifice feature.
type Handlers struct {
	registry     *curation.Registry
	sessionStore sessions.Store
	runtimeURL   string
	isDev        bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(registry *curation.Registry, sessionStore sessions.Store, runtimeURL string, isDev bool) *Handlers {
	if runtimeURL == "" {
		runtimeURL = sandbox.DefaultRuntimeURL
	}
	return &Handlers{
		registry:     registry,
		sessionStore: sessionStore,
		runtimeURL:   runtimeURL,
		isDev:        isDev,
	}
}

// Page renders the curation page, igniting the visitor's session on first
// visit. A failed first load still renders the page with an empty stage.
func (h *Handlers) Page(w http.ResponseWriter, r *http.Request) {
	sess, err := h.visitor(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := sess.Ignite(r.Context()); err != nil {
		sess.Logger().Error("failed to load first sketch", "error", err)
	}

	view := buildView(sess)
	if err := Page(view, h.isDev).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Updates is the long-lived SSE endpoint of the page. It follows the
// visitor's host: loads and clears repaint the stage, updates are posted
// into the sandbox through the bridge script.
func (h *Handlers) Updates(w http.ResponseWriter, r *http.Request) {
	sess, err := h.visitor(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	events := sess.Host().Subscribe()
	defer sess.Host().Unsubscribe(events)

	sse := datastar.NewSSE(w, r)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := h.sendEvent(sse, sess, ev); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

func (h *Handlers) sendEvent(sse *datastar.ServerSentEventGenerator, sess *curation.Session, ev host.Event) error {
	switch ev.Kind {
	case host.EventUpdate:
		// The full snapshot is sent so a dropped notification heals on the next one.
		return sse.ExecuteScript(bridgeCall(host.Message{
			Type:    host.MessageUpdate,
			Payload: sess.Host().Params(),
		}))
	default:
		view := buildView(sess)
		if err := sse.PatchElementTempl(Stage(view.Context)); err != nil {
			return err
		}
		if err := sse.PatchElementTempl(Tuning(view)); err != nil {
			return err
		}
		return sse.PatchElementTempl(Readout(view.Status))
	}
}

// Keep advances the deck.
func (h *Handlers) Keep(w http.ResponseWriter, r *http.Request) {
	h.curate(w, r, (*curation.Session).Keep)
}

// Kill flags the current sketch and advances the deck.
func (h *Handlers) Kill(w http.ResponseWriter, r *http.Request) {
	h.curate(w, r, (*curation.Session).Kill)
}

func (h *Handlers) curate(w http.ResponseWriter, r *http.Request, action func(*curation.Session, context.Context) error) {
	sess, err := h.visitor(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := action(sess, r.Context()); err != nil {
		_ = sse.ConsoleError(err)
	}
	if err := sse.PatchElementTempl(Readout(buildView(sess).Status)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Flagged exports the visitor's flagged sketches as a JSON list.
func (h *Handlers) Flagged(w http.ResponseWriter, r *http.Request) {
	sess, err := h.visitor(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	flagged := sess.Export()
	if flagged == nil {
		flagged = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(flagged)
}

// SketchMessage accepts a sketchUpdate relayed from the sandbox. Messages
// from a context that is no longer live are answered with 409.
func (h *Handlers) SketchMessage(w http.ResponseWriter, r *http.Request) {
	var signals MessageSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, fmt.Sprintf("failed to read signals: %v", err), http.StatusBadRequest)
		return
	}

	sess, err := h.visitor(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	err = sess.Host().HandleMessage(signals.Context, host.Message{
		Type:    host.MessageSketchUpdate,
		Payload: signals.Payload,
	})
	switch {
	case errors.Is(err, host.ErrStaleContext):
		http.Error(w, err.Error(), http.StatusConflict)
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// Tune applies outer-page parameter edits to the live sketch.
func (h *Handlers) Tune(w http.ResponseWriter, r *http.Request) {
	// Read signals BEFORE creating SSE (SSE consumes the request body)
	var signals TuningSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, fmt.Sprintf("failed to read signals: %v", err), http.StatusBadRequest)
		return
	}

	sess, err := h.visitor(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)
	if len(signals.Params) == 0 {
		return
	}
	sess.Host().Update(signals.Params)
	if err := sse.PatchElementTempl(Tuning(buildView(sess))); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Sandbox serves the execution document of a live context.
func (h *Handlers) Sandbox(w http.ResponseWriter, r *http.Request) {
	ec, ok := h.registry.Lookup(chi.URLParam(r, "contextID"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	sandbox.SetHeaders(w.Header(), h.runtimeURL)
	if err := sandbox.Document(ec, h.runtimeURL).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// visitor resolves the curation session of the request, issuing a page
// session cookie on first contact. It must run before the response body
// is written.
func (h *Handlers) visitor(w http.ResponseWriter, r *http.Request) (*curation.Session, error) {
	// Get returns a fresh session when the cookie is missing or invalid.
	ps, _ := h.sessionStore.Get(r, sessionName)

	id, _ := ps.Values["id"].(string)
	if id == "" {
		id = uuid.NewString()
		ps.Values["id"] = id
		if err := ps.Save(r, w); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
	}

	return h.registry.GetOrCreate(id)
}
