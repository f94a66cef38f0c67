package feed

// DefaultAcksNeeded is the number of acks the feed sends for a full handshake.
const DefaultAcksNeeded = 3

// AckLatch counts down handshake acknowledgments. It fires once, on the transition
// to zero; acks after that are ignored.
type AckLatch struct {
	remaining int
}

func NewAckLatch(n int) *AckLatch {
	if n < 1 {
		n = 1
	}
	return &AckLatch{remaining: n}
}

// Ack records one acknowledgment and reports whether it was the last one needed.
func (l *AckLatch) Ack() bool {
	if l.remaining == 0 {
		return false
	}
	l.remaining--
	return l.remaining == 0
}

func (l *AckLatch) Remaining() int { return l.remaining }

func (l *AckLatch) Done() bool { return l.remaining == 0 }
