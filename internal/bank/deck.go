package bank

import (
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
)

// ErrDeckExhausted is returned by Next once every sketch has been dealt.
var ErrDeckExhausted = errors.New("all files reviewed")

// Deck deals sketches uniformly at random without repetition and keeps
// the list of flagged sketches.
type Deck struct {
	mu      sync.Mutex
	pool    []string
	current string
	flagged []string
	hero    string
	rng     *rand.Rand
}

// DeckOption configures a Deck.
type DeckOption func(*Deck)

// WithHero locks the deck to a single sketch.
func WithHero(ref string) DeckOption {
	return func(d *Deck) { d.hero = ref }
}

// WithRand sets the random source; tests use it for determinism.
func WithRand(rng *rand.Rand) DeckOption {
	return func(d *Deck) { d.rng = rng }
}

// NewDeck creates a deck over sources. Duplicate sources are dealt once.
func NewDeck(sources []string, opts ...DeckOption) *Deck {
	d := &Deck{}
	for _, opt := range opts {
		opt(d)
	}
	if d.rng == nil {
		d.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // not security sensitive
	}

	if d.hero != "" {
		d.pool = []string{d.hero}
		return d
	}

	seen := make(map[string]bool, len(sources))
	for _, s := range sources {
		if s != "" && !seen[s] {
			seen[s] = true
			d.pool = append(d.pool, s)
		}
	}
	return d
}

// Next removes a random sketch from the pool and makes it current. When
// the pool is empty the current sketch is cleared and ErrDeckExhausted
// returned.
func (d *Deck) Next() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.pool) == 0 {
		d.current = ""
		return "", ErrDeckExhausted
	}

	i := d.rng.IntN(len(d.pool))
	d.current = d.pool[i]
	d.pool = slices.Delete(d.pool, i, i+1)
	return d.current, nil
}

// Flag records the current sketch in the flagged list. It reports false
// when nothing is current or the sketch is already flagged.
func (d *Deck) Flag() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == "" || slices.Contains(d.flagged, d.current) {
		return false
	}
	d.flagged = append(d.flagged, d.current)
	return true
}

// Export returns the flagged sketches in flagging order.
func (d *Deck) Export() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.flagged)
}

// Current returns the sketch last dealt, or "".
func (d *Deck) Current() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Remaining returns the number of sketches still in the pool.
func (d *Deck) Remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pool)
}

// Hero returns the locked sketch, or "".
func (d *Deck) Hero() string {
	return d.hero
}
