package host

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/veetance/artifice/internal/cortex"
	"github.com/veetance/artifice/internal/testutil"
	"github.com/veetance/artifice/pkg/core"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mapFetcher serves sketches from memory. A gate, when present, blocks the
// fetch until it is closed.
type mapFetcher struct {
	mu      sync.Mutex
	sources map[string]string
	gates   map[string]chan struct{}
}

func (f *mapFetcher) Fetch(ctx context.Context, ref string) (string, error) {
	f.mu.Lock()
	gate := f.gates[ref]
	src, ok := f.sources[ref]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if !ok {
		return "", errors.New("not found")
	}
	return src, nil
}

func newTestHost(t *testing.T, sources map[string]string) (*Host, *mapFetcher) {
	t.Helper()
	f := &mapFetcher{sources: sources, gates: map[string]chan struct{}{}}
	h := New(Config{
		Analyzer: cortex.New(cortex.WithValidation(false)),
		Fetcher:  f,
		Logger:   testutil.NewTestLogger(t),
	})
	return h, f
}

func TestNew_SeedsBaseline(t *testing.T) {
	h, _ := newTestHost(t, nil)
	assert.Equal(t, core.DefaultBaseline(), h.Params())
	assert.Nil(t, h.Current())
}

func TestLoadSketch_MergesIntoSession(t *testing.T) {
	h, _ := newTestHost(t, map[string]string{
		"a.js": "let radius = 50;\nfunction setup() { circle(0, 0, radius); }",
	})

	ec, err := h.LoadSketch(context.Background(), "a.js")
	require.NoError(t, err)
	require.NotNil(t, ec)

	params := h.Params()
	assert.Equal(t, 50.0, params["radius"])
	assert.Equal(t, 180.0, params["hue"], "baseline survives the merge")
	assert.Equal(t, params, ec.Params)
	assert.Equal(t, "a.js", ec.Source)
	assert.Contains(t, ec.Code, "circle(0, 0, p.radius)")
	assert.Same(t, ec, h.Current())
}

func TestLoadSketch_LaterLoadOverridesShared(t *testing.T) {
	h, _ := newTestHost(t, map[string]string{
		"a.js": "let radius = 50;\nlet speed = 2;\nfunction setup() {}",
		"b.js": "let radius = 10;\nfunction setup() {}",
	})

	_, err := h.LoadSketch(context.Background(), "a.js")
	require.NoError(t, err)
	_, err = h.LoadSketch(context.Background(), "b.js")
	require.NoError(t, err)

	params := h.Params()
	assert.Equal(t, 10.0, params["radius"])
	assert.Equal(t, 2.0, params["speed"], "keys absent from the later sketch persist")
}

func TestLoadSketch_FetchFailureLeavesStateUntouched(t *testing.T) {
	h, _ := newTestHost(t, map[string]string{
		"a.js": "let radius = 50;\nfunction setup() {}",
	})

	first, err := h.LoadSketch(context.Background(), "a.js")
	require.NoError(t, err)
	before := h.Params()

	ec, err := h.LoadSketch(context.Background(), "missing.js")
	require.Error(t, err)
	assert.Nil(t, ec)
	assert.Equal(t, before, h.Params())
	assert.Same(t, first, h.Current())
}

func TestLoadSketch_GenerationsIncrease(t *testing.T) {
	h, _ := newTestHost(t, map[string]string{"a.js": "function setup() {}"})

	a, err := h.LoadSketch(context.Background(), "a.js")
	require.NoError(t, err)
	b, err := h.LoadSketch(context.Background(), "a.js")
	require.NoError(t, err)

	assert.Greater(t, b.Generation, a.Generation)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestLoadSketch_LateOlderLoadIsDropped(t *testing.T) {
	h, f := newTestHost(t, map[string]string{
		"slow.js": "let radius = 1;\nfunction setup() {}",
		"fast.js": "let radius = 2;\nfunction setup() {}",
	})
	gate := make(chan struct{})
	f.gates["slow.js"] = gate

	var slowErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, slowErr = h.LoadSketch(context.Background(), "slow.js")
	}()

	// Wait until the slow load holds its ticket.
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.issued == 1
	}, time.Second, time.Millisecond)

	fast, err := h.LoadSketch(context.Background(), "fast.js")
	require.NoError(t, err)

	close(gate)
	<-done

	require.ErrorIs(t, slowErr, ErrSuperseded)
	assert.Same(t, fast, h.Current())
	assert.Equal(t, 2.0, h.Params()["radius"], "superseded load does not merge")
}

func TestLoadSketch_ClearSupersedesInFlight(t *testing.T) {
	h, f := newTestHost(t, map[string]string{
		"slow.js": "let radius = 7;\nfunction setup() {}",
	})
	gate := make(chan struct{})
	f.gates["slow.js"] = gate

	var slowErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, slowErr = h.LoadSketch(context.Background(), "slow.js")
	}()

	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.issued == 1
	}, time.Second, time.Millisecond)

	h.Clear()
	close(gate)
	<-done

	require.ErrorIs(t, slowErr, ErrSuperseded)
	assert.Nil(t, h.Current())
	_, merged := h.Params()["radius"]
	assert.False(t, merged, "cleared load does not merge")

	// The host stays usable after the clear.
	delete(f.gates, "slow.js")
	ec, err := h.LoadSketch(context.Background(), "slow.js")
	require.NoError(t, err)
	assert.Same(t, ec, h.Current())
}

func TestHandleMessage(t *testing.T) {
	h, _ := newTestHost(t, map[string]string{"a.js": "let radius = 50;\nfunction setup() {}"})

	stale, err := h.LoadSketch(context.Background(), "a.js")
	require.NoError(t, err)
	live, err := h.LoadSketch(context.Background(), "a.js")
	require.NoError(t, err)

	t.Run("current context merges", func(t *testing.T) {
		err := h.HandleMessage(live.ID, Message{
			Type:    MessageSketchUpdate,
			Payload: core.ParameterMap{"radius": 75},
		})
		require.NoError(t, err)
		assert.Equal(t, 75.0, h.Params()["radius"])
	})

	t.Run("stale context is rejected", func(t *testing.T) {
		err := h.HandleMessage(stale.ID, Message{
			Type:    MessageSketchUpdate,
			Payload: core.ParameterMap{"radius": 1},
		})
		require.ErrorIs(t, err, ErrStaleContext)
		assert.Equal(t, 75.0, h.Params()["radius"])
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		err := h.HandleMessage(live.ID, Message{Type: "reboot"})
		require.ErrorIs(t, err, ErrUnknownMessage)
	})

	t.Run("update type is host-bound only", func(t *testing.T) {
		err := h.HandleMessage(live.ID, Message{Type: MessageUpdate})
		require.ErrorIs(t, err, ErrUnknownMessage)
	})
}

func TestHandleMessage_NoContext(t *testing.T) {
	h, _ := newTestHost(t, nil)
	err := h.HandleMessage("anything", Message{Type: MessageSketchUpdate})
	require.ErrorIs(t, err, ErrStaleContext)
}

func TestEvents(t *testing.T) {
	h, _ := newTestHost(t, map[string]string{"a.js": "let radius = 50;\nfunction setup() {}"})
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	// Update before any context is live publishes nothing but still merges.
	h.Update(core.ParameterMap{"speed": 3})
	assert.Equal(t, 3.0, h.Params()["speed"])

	ec, err := h.LoadSketch(context.Background(), "a.js")
	require.NoError(t, err)

	ev := <-ch
	assert.Equal(t, EventLoaded, ev.Kind)
	assert.Same(t, ec, ev.Context)
	assert.Equal(t, 3.0, ev.Context.Params["speed"])

	h.Update(core.ParameterMap{"radius": 9})
	ev = <-ch
	assert.Equal(t, EventUpdate, ev.Kind)
	assert.Equal(t, MessageUpdate, ev.Message.Type)
	assert.Equal(t, core.ParameterMap{"radius": 9}, ev.Message.Payload)
	assert.Equal(t, 9.0, h.Params()["radius"])

	h.Clear()
	ev = <-ch
	assert.Equal(t, EventCleared, ev.Kind)
	assert.Nil(t, h.Current())

	_, ok := h.Lookup(ec.ID)
	assert.False(t, ok)
}

func TestLookup(t *testing.T) {
	h, _ := newTestHost(t, map[string]string{"a.js": "function setup() {}"})
	ec, err := h.LoadSketch(context.Background(), "a.js")
	require.NoError(t, err)

	got, ok := h.Lookup(ec.ID)
	require.True(t, ok)
	assert.Same(t, ec, got)

	_, ok = h.Lookup("other")
	assert.False(t, ok)
}
