package transport

import (
	"context"

	"github.com/hongjun500/feedwatch/internal/protocol"
)

// EventKind classifies what happened on a connection.
type EventKind int

const (
	EventFrame EventKind = iota
	EventError
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventFrame:
		return "frame"
	case EventError:
		return "error"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is one transport occurrence pushed to the connection's consumer.
type Event struct {
	Kind   EventKind
	Data   []byte // EventFrame
	Err    error  // EventError, and EventClosed when the close was not clean
	Code   int    // EventClosed
	Reason string // EventClosed
}

// Conn is an open feed connection. Events delivers frames and faults in arrival
// order; the last event is always EventClosed, after which the channel is closed.
type Conn interface {
	Send(e *protocol.Envelope) error
	Events() <-chan Event
	Close() error
}

// Dialer opens feed connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}
