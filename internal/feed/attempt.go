package feed

import (
	"time"

	"github.com/hongjun500/feedwatch/internal/directory"
)

// Attempt is the state of one connection attempt. It is created fresh for every
// dial and never shared with another attempt.
type Attempt struct {
	Number        uint64
	CorrelationID string
	StartedAt     time.Time
	Resources     directory.Snapshot
	Acks          *AckLatch
}

func newAttempt(number uint64, correlationID string, acksNeeded int, now time.Time) *Attempt {
	return &Attempt{
		Number:        number,
		CorrelationID: correlationID,
		StartedAt:     now,
		Acks:          NewAckLatch(acksNeeded),
	}
}

// Live reports whether every handshake ack has arrived.
func (a *Attempt) Live() bool { return a.Acks.Done() }
