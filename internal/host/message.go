package host

import (
	"errors"

	"github.com/veetance/artifice/pkg/core"
)

// MessageType names a message on the host/sandbox channel.
type MessageType string

// Message types.
const (
	// MessageUpdate flows host → sandbox; the sandbox merges the payload into p.
	MessageUpdate MessageType = "update"
	// MessageSketchUpdate flows sandbox → host; the host merges the payload
	// into the session parameters.
	MessageSketchUpdate MessageType = "sketchUpdate"
)

// Message is one envelope on the host/sandbox channel.
type Message struct {
	Type    MessageType       `json:"type"`
	Payload core.ParameterMap `json:"payload"`
}

var (
	// ErrStaleContext is returned for messages from a discarded context.
	ErrStaleContext = errors.New("message from a discarded execution context")
	// ErrUnknownMessage is returned for message types the host does not accept.
	ErrUnknownMessage = errors.New("unknown message type")
)

// EventKind classifies host events delivered to subscribers.
type EventKind int

// Host event kinds.
const (
	// EventLoaded: a new execution context replaced the previous one.
	EventLoaded EventKind = iota
	// EventUpdate: an update message must be delivered to the live context.
	EventUpdate
	// EventCleared: the live context was discarded without a replacement.
	EventCleared
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventUpdate:
		return "update"
	case EventCleared:
		return "cleared"
	}
	return "unknown"
}

// Event is published by the host after each state change.
type Event struct {
	Kind    EventKind
	Context *ExecutionContext
	Message Message
}
