package feed

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"github.com/hongjun500/feedwatch/internal/directory"
	"github.com/hongjun500/feedwatch/internal/events"
	"github.com/hongjun500/feedwatch/internal/observe"
	"github.com/hongjun500/feedwatch/internal/protocol"
	"github.com/hongjun500/feedwatch/internal/transport"
	"github.com/hongjun500/feedwatch/pkg/logger"
	"go.uber.org/zap"
)

// DefaultReconnectDelay is the fixed wait between a close and the next attempt.
const DefaultReconnectDelay = 5 * time.Second

// State is the supervisor's position in the connection lifecycle.
type State int32

const (
	StateConnecting State = iota
	StateHandshaking
	StateLive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateLive:
		return "live"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Directory yields the eligible servers for a token.
type Directory interface {
	FetchEligible(ctx context.Context, token string) (directory.Snapshot, error)
}

type Config struct {
	URL            string
	Token          string
	AcksNeeded     int
	ReconnectDelay time.Duration
}

// Supervisor keeps the feed subscription alive, reconnecting after every close.
type Supervisor struct {
	cfg     Config
	dialer  transport.Dialer
	dir     Directory
	hub     *events.Hub
	log     *zap.Logger
	backoff backoff.BackOff

	after func(time.Duration) <-chan time.Time
	newID func() string
	now   func() time.Time

	state     atomic.Int32
	attempts  atomic.Uint64
	resources atomic.Pointer[directory.Snapshot]
}

func NewSupervisor(cfg Config, dialer transport.Dialer, dir Directory, hub *events.Hub, log *zap.Logger) *Supervisor {
	if cfg.AcksNeeded <= 0 {
		cfg.AcksNeeded = DefaultAcksNeeded
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if hub == nil {
		hub = events.NewHub()
	}
	return &Supervisor{
		cfg:     cfg,
		dialer:  dialer,
		dir:     dir,
		hub:     hub,
		log:     logger.Or(log),
		backoff: backoff.NewConstantBackOff(cfg.ReconnectDelay),
		after:   time.After,
		newID:   protocol.NewCorrelationID,
		now:     time.Now,
	}
}

func (s *Supervisor) State() State { return State(s.state.Load()) }

// Live reports whether the current attempt finished its handshake.
func (s *Supervisor) Live() bool { return s.State() == StateLive }

// Attempts returns how many connection attempts have started.
func (s *Supervisor) Attempts() uint64 { return s.attempts.Load() }

// Resources returns the snapshot of the latest successful directory fetch.
func (s *Supervisor) Resources() directory.Snapshot {
	if p := s.resources.Load(); p != nil {
		return *p
	}
	return directory.Snapshot{}
}

func (s *Supervisor) setState(st State) {
	s.state.Store(int32(st))
	observe.SetState(int(st))
}

// Run connects and reconnects until ctx is done. It returns only ctx's error.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		n, code, reason := s.runAttempt(ctx)
		s.setState(StateClosed)
		if err := ctx.Err(); err != nil {
			s.log.Sugar().Infow("supervisor_stopped", "attempt", n)
			return err
		}

		delay := s.backoff.NextBackOff()
		if delay == backoff.Stop || delay <= 0 {
			delay = s.cfg.ReconnectDelay
		}
		s.log.Sugar().Warnw("connection_closed",
			"attempt", n,
			"code", code,
			"reason", reason,
			"retry_in", delay,
		)
		s.hub.Emit(&events.Disconnected{When: s.now(), Attempt: n, Code: code, Reason: reason, RetryIn: delay})

		select {
		case <-ctx.Done():
			s.log.Sugar().Infow("supervisor_stopped", "attempt", n)
			return ctx.Err()
		case <-s.after(delay):
		}
		s.log.Sugar().Infow("reconnecting", "previous_attempt", n)
	}
}

// runAttempt drives one attempt from dial to close and reports the close code.
func (s *Supervisor) runAttempt(ctx context.Context) (uint64, int, string) {
	n := s.attempts.Add(1)
	a := newAttempt(n, s.newID(), s.cfg.AcksNeeded, s.now())
	l := s.log.Sugar().With("attempt", n, "correlation_id", a.CorrelationID)

	s.setState(StateConnecting)
	observe.IncAttempt()
	l.Infow("connecting", "url", s.cfg.URL)

	conn, err := s.dialer.Dial(ctx, s.cfg.URL)
	if err != nil {
		l.Errorw("dial_failed", "err", err)
		return n, websocket.CloseAbnormalClosure, err.Error()
	}
	defer conn.Close()

	s.setState(StateHandshaking)
	snap, err := s.dir.FetchEligible(ctx, s.cfg.Token)
	if err != nil {
		// The join frame needs the server list, so the attempt ends here.
		l.Errorw("directory_fetch_failed", "err", err)
		return n, websocket.CloseNormalClosure, err.Error()
	}
	a.Resources = snap
	s.resources.Store(&snap)
	observe.SetEligible(snap.Len())

	if err := (Handshake{Log: s.log}).Run(conn, a.CorrelationID, s.cfg.Token, snap.IDs()); err != nil {
		l.Errorw("handshake_failed", "err", err)
		return n, websocket.CloseAbnormalClosure, err.Error()
	}

	d := NewDispatcher(a, s.hub, s.log)
	d.now = s.now
	d.OnLive = func(*Attempt) {
		s.setState(StateLive)
		s.backoff.Reset()
	}

	for {
		select {
		case <-ctx.Done():
			return n, websocket.CloseNormalClosure, "shutdown"
		case ev, ok := <-conn.Events():
			if !ok {
				return n, websocket.CloseAbnormalClosure, "event stream ended"
			}
			switch ev.Kind {
			case transport.EventFrame:
				d.OnFrame(ev.Data)
			case transport.EventError:
				l.Warnw("transport_error", "err", ev.Err)
			case transport.EventClosed:
				return n, ev.Code, ev.Reason
			}
		}
	}
}
