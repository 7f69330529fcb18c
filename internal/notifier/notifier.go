// Package notifier provides a typed broadcast mechanism for live updates.
package notifier

import "sync"

// DefaultBuffer is the per-listener channel capacity.
const DefaultBuffer = 16

// Notifier broadcasts values to all subscribed listeners.
// Delivery is best effort: a listener whose buffer is full misses the value
// and is expected to re-read current state on the next one it receives.
type Notifier[T any] struct {
	mu        sync.RWMutex
	listeners map[chan T]struct{}
	buffer    int
}

// New creates a new Notifier instance.
func New[T any]() *Notifier[T] {
	return &Notifier[T]{
		listeners: make(map[chan T]struct{}),
		buffer:    DefaultBuffer,
	}
}

// Subscribe returns a channel that receives broadcast values.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier[T]) Subscribe() chan T {
	ch := make(chan T, n.buffer)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
// Unsubscribing an unknown channel is a no-op.
func (n *Notifier[T]) Unsubscribe(ch chan T) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.listeners[ch]; !ok {
		return
	}
	delete(n.listeners, ch)
	close(ch)
}

// Broadcast sends v to all listeners without blocking.
func (n *Notifier[T]) Broadcast(v T) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- v:
		default:
			// Channel full, skip (listener will catch up on next broadcast)
		}
	}
}

// Len returns the number of active listeners.
func (n *Notifier[T]) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
