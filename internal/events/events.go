package events

import (
	"encoding/json"
	"time"
)

// EventType identifies a reportable feed event.
type EventType string

const (
	EventSubscriptionActive EventType = "subscription.active"
	EventPlayerJoined       EventType = "player.joined"
	EventUnknownResource    EventType = "resource.unknown"
	EventUpstreamError      EventType = "upstream.error"
	EventDisconnected       EventType = "connection.closed"
)

type Event interface {
	Type() EventType
	Time() time.Time
}

// SubscriptionActive is emitted once per attempt, when the last handshake ack arrives.
type SubscriptionActive struct {
	When          time.Time
	Attempt       uint64
	CorrelationID string
	Servers       int
	Elapsed       time.Duration
}

func (e *SubscriptionActive) Type() EventType { return EventSubscriptionActive }
func (e *SubscriptionActive) Time() time.Time { return e.When }

// PlayerJoined reports an add-player activity on a known server.
type PlayerJoined struct {
	When       time.Time
	Attempt    uint64
	PlayerID   string
	ServerID   string
	ServerName string
}

func (e *PlayerJoined) Type() EventType { return EventPlayerJoined }
func (e *PlayerJoined) Time() time.Time { return e.When }

// UnknownResource reports activity for a server missing from the attempt's snapshot.
type UnknownResource struct {
	When     time.Time
	Attempt  uint64
	PlayerID string
	ServerID string
}

func (e *UnknownResource) Type() EventType { return EventUnknownResource }
func (e *UnknownResource) Time() time.Time { return e.When }

// UpstreamError carries the payload of an error frame.
type UpstreamError struct {
	When    time.Time
	Attempt uint64
	Payload json.RawMessage
}

func (e *UpstreamError) Type() EventType { return EventUpstreamError }
func (e *UpstreamError) Time() time.Time { return e.When }

// Disconnected is emitted when a connection attempt ends and a retry is scheduled.
type Disconnected struct {
	When    time.Time
	Attempt uint64
	Code    int
	Reason  string
	RetryIn time.Duration
}

func (e *Disconnected) Type() EventType { return EventDisconnected }
func (e *Disconnected) Time() time.Time { return e.When }
