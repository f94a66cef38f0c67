package feed

import (
	"fmt"

	"github.com/hongjun500/feedwatch/internal/protocol"
	"github.com/hongjun500/feedwatch/pkg/logger"
	"go.uber.org/zap"
)

// Sender writes one frame to the feed.
type Sender interface {
	Send(e *protocol.Envelope) error
}

// Handshake sends the auth, filter and join frames of one attempt.
type Handshake struct {
	Log *zap.Logger
}

// Run sends the three frames in order without waiting for acks. It stops at the first
// failed send. All frames are built before anything is sent, so an encoding failure
// sends nothing.
func (h Handshake) Run(s Sender, correlationID, token string, serverIDs []string) error {
	f := protocol.NewMessageFactory(correlationID)

	auth, err := f.CreateAuthMessage(token)
	if err != nil {
		return err
	}
	filter, err := f.CreateFilterMessage()
	if err != nil {
		return err
	}
	join, err := f.CreateJoinMessage(serverIDs)
	if err != nil {
		return err
	}

	for _, e := range []*protocol.Envelope{auth, filter, join} {
		if err := s.Send(e); err != nil {
			return fmt.Errorf("send %s: %w", e.T, err)
		}
	}

	logger.Or(h.Log).Sugar().Infow("handshake_sent",
		"correlation_id", f.CorrelationID(),
		"channels", len(serverIDs),
	)
	return nil
}
