package feed

import (
	"errors"
	"fmt"
	"time"

	"github.com/hongjun500/feedwatch/internal/events"
	"github.com/hongjun500/feedwatch/internal/observe"
	"github.com/hongjun500/feedwatch/internal/protocol"
	"github.com/hongjun500/feedwatch/pkg/logger"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	playerIDPath = "relationships.players.data.0.id"
	serverIDPath = "relationships.servers.data.0.id"
)

// Dispatcher classifies the inbound frames of one attempt.
type Dispatcher struct {
	attempt *Attempt
	hub     *events.Hub
	log     *zap.Logger
	router  *protocol.MessageRouter
	now     func() time.Time

	// OnLive runs once, when the last handshake ack arrives.
	OnLive func(a *Attempt)
}

func NewDispatcher(a *Attempt, hub *events.Hub, log *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		attempt: a,
		hub:     hub,
		log:     logger.Or(log),
		router:  protocol.NewMessageRouter(),
		now:     time.Now,
	}
	d.router.RegisterHandler(protocol.MsgError, d.handleError)
	d.router.RegisterHandler(protocol.MsgAck, d.handleAck)
	d.router.RegisterHandler(protocol.MsgActivity, d.handleActivity)
	d.router.SetDefaultHandler(d.handleOther)
	return d
}

// OnFrame handles one raw frame. Frames that cannot be decoded, or activity frames
// without the expected ids, are dropped and leave the attempt untouched.
func (d *Dispatcher) OnFrame(raw []byte) {
	env, err := protocol.Decode(raw)
	if err != nil {
		d.drop(err, raw)
		return
	}
	observe.IncFrame(frameLabel(env.T))
	if err := d.router.Dispatch(env); err != nil {
		d.drop(err, raw)
	}
}

func (d *Dispatcher) drop(err error, raw []byte) {
	reason := "malformed"
	if errors.Is(err, protocol.ErrEmptyFrame) {
		reason = "empty"
	}
	observe.IncDropped(reason)
	d.log.Sugar().Debugw("frame_dropped", "reason", reason, "err", err, "size", len(raw), "attempt", d.attempt.Number)
}

func (d *Dispatcher) handleError(env *protocol.Envelope) error {
	d.hub.Emit(&events.UpstreamError{When: d.now(), Attempt: d.attempt.Number, Payload: env.P})
	return nil
}

func (d *Dispatcher) handleAck(env *protocol.Envelope) error {
	if !d.attempt.Acks.Ack() {
		if d.attempt.Acks.Done() {
			d.log.Sugar().Debugw("ack_ignored", "attempt", d.attempt.Number, "correlation_id", env.I)
		}
		return nil
	}
	if d.OnLive != nil {
		d.OnLive(d.attempt)
	}
	now := d.now()
	d.hub.Emit(&events.SubscriptionActive{
		When:          now,
		Attempt:       d.attempt.Number,
		CorrelationID: d.attempt.CorrelationID,
		Servers:       d.attempt.Resources.Len(),
		Elapsed:       now.Sub(d.attempt.StartedAt),
	})
	return nil
}

func (d *Dispatcher) handleActivity(env *protocol.Envelope) error {
	player := gjson.GetBytes(env.P, playerIDPath)
	server := gjson.GetBytes(env.P, serverIDPath)
	if !player.Exists() || !server.Exists() {
		return fmt.Errorf("%w: activity without player or server id", protocol.ErrMalformedFrame)
	}

	res, ok := d.attempt.Resources.Lookup(server.String())
	if !ok {
		d.hub.Emit(&events.UnknownResource{
			When:     d.now(),
			Attempt:  d.attempt.Number,
			PlayerID: player.String(),
			ServerID: server.String(),
		})
		return nil
	}
	d.hub.Emit(&events.PlayerJoined{
		When:       d.now(),
		Attempt:    d.attempt.Number,
		PlayerID:   player.String(),
		ServerID:   res.ID,
		ServerName: res.Name,
	})
	return nil
}

func (d *Dispatcher) handleOther(env *protocol.Envelope) error {
	d.log.Sugar().Debugw("frame_ignored", "type", env.T, "attempt", d.attempt.Number)
	return nil
}

func frameLabel(t protocol.MessageType) string {
	switch t {
	case protocol.MsgAck, protocol.MsgError, protocol.MsgActivity:
		return string(t)
	default:
		return "other"
	}
}
