package subscriber

import (
	"context"
	"time"

	"github.com/hongjun500/feedwatch/internal/bus/redisstream"
	"github.com/hongjun500/feedwatch/internal/events"
	"github.com/hongjun500/feedwatch/internal/observe"
	"github.com/hongjun500/feedwatch/pkg/logger"
	"go.uber.org/zap"
)

// Publisher is the part of redisstream.Bus the stream sink needs.
type Publisher interface {
	Publish(ctx context.Context, m *redisstream.Message) error
}

// StreamSink forwards player joins to a Publisher off the dispatch path. When the
// buffer is full new joins are dropped.
type StreamSink struct {
	pub     Publisher
	out     chan *redisstream.Message
	timeout time.Duration
	log     *zap.Logger
}

func NewStreamSink(pub Publisher, bufferSize int, timeout time.Duration, log *zap.Logger) *StreamSink {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &StreamSink{
		pub:     pub,
		out:     make(chan *redisstream.Message, bufferSize),
		timeout: timeout,
		log:     logger.Or(log),
	}
}

// Register subscribes the sink to player joins.
func (s *StreamSink) Register(hub *events.Hub) {
	hub.Subscribe(events.EventPlayerJoined, func(e events.Event) {
		pe := e.(*events.PlayerJoined)
		s.enqueue(&redisstream.Message{
			Type:       string(pe.Type()),
			When:       pe.When,
			PlayerID:   pe.PlayerID,
			ServerID:   pe.ServerID,
			ServerName: pe.ServerName,
		})
	})
}

func (s *StreamSink) enqueue(m *redisstream.Message) {
	select {
	case s.out <- m:
	default:
		observe.IncSinkError("redis", "dropped")
	}
}

// Run publishes queued messages until ctx is done.
func (s *StreamSink) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-s.out:
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			err := s.pub.Publish(pctx, m)
			cancel()
			if err != nil {
				observe.IncSinkError("redis", "publish")
				s.log.Sugar().Warnw("stream_publish_error", "player", m.PlayerID, "server_id", m.ServerID, "err", err)
			}
		}
	}
}
