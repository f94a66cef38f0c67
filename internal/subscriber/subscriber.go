package subscriber

import (
	"github.com/hongjun500/feedwatch/internal/events"
	"github.com/hongjun500/feedwatch/internal/observe"
	"github.com/hongjun500/feedwatch/pkg/logger"
	"go.uber.org/zap"
)

// RegisterAll wires the built-in reporters (log lines and metrics) to the hub.
func RegisterAll(hub *events.Hub, log *zap.Logger) {
	l := logger.Or(log).Sugar()
	registerSubscription(hub, l)
	registerPlayerJoined(hub, l)
	registerUnknownResource(hub, l)
	registerUpstreamError(hub, l)
	registerDisconnected(hub)
}

func registerSubscription(hub *events.Hub, l *zap.SugaredLogger) {
	hub.Subscribe(events.EventSubscriptionActive, func(e events.Event) {
		se := e.(*events.SubscriptionActive)
		l.Infow("subscription_active",
			"attempt", se.Attempt,
			"correlation_id", se.CorrelationID,
			"servers", se.Servers,
			"elapsed", se.Elapsed,
		)
		observe.IncSubscriptionActive()
	})
}

func registerPlayerJoined(hub *events.Hub, l *zap.SugaredLogger) {
	hub.Subscribe(events.EventPlayerJoined, func(e events.Event) {
		pe := e.(*events.PlayerJoined)
		l.Infow("player_joined",
			"player", pe.PlayerID,
			"server", pe.ServerName,
			"server_id", pe.ServerID,
		)
		observe.IncPlayerJoin()
	})
}

func registerUnknownResource(hub *events.Hub, l *zap.SugaredLogger) {
	hub.Subscribe(events.EventUnknownResource, func(e events.Event) {
		ue := e.(*events.UnknownResource)
		l.Warnw("unknown_resource",
			"player", ue.PlayerID,
			"server_id", ue.ServerID,
			"attempt", ue.Attempt,
		)
		observe.IncUnknownResource()
	})
}

func registerUpstreamError(hub *events.Hub, l *zap.SugaredLogger) {
	hub.Subscribe(events.EventUpstreamError, func(e events.Event) {
		ue := e.(*events.UpstreamError)
		l.Errorw("upstream_error", "payload", string(ue.Payload), "attempt", ue.Attempt)
		observe.IncUpstreamError()
	})
}

// The supervisor logs the close itself; only the metric is recorded here.
func registerDisconnected(hub *events.Hub) {
	hub.Subscribe(events.EventDisconnected, func(e events.Event) {
		observe.IncClosed(e.(*events.Disconnected).Code)
	})
}
