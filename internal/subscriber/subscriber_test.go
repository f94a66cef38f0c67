package subscriber

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hongjun500/feedwatch/internal/bus/redisstream"
	"github.com/hongjun500/feedwatch/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRegisterAll_LogsReports(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	hub := events.NewHub()
	RegisterAll(hub, zap.New(core))

	hub.Emit(&events.SubscriptionActive{When: time.Now(), Attempt: 1, CorrelationID: "cid", Servers: 2})
	hub.Emit(&events.PlayerJoined{When: time.Now(), PlayerID: "p9", ServerID: "s1", ServerName: "Alpha"})
	hub.Emit(&events.UnknownResource{When: time.Now(), PlayerID: "p9", ServerID: "gone"})
	hub.Emit(&events.UpstreamError{When: time.Now(), Payload: []byte(`"Invalid token"`)})

	want := []string{"subscription_active", "player_joined", "unknown_resource", "upstream_error"}
	entries := logs.All()
	if len(entries) != len(want) {
		t.Fatalf("got %d log entries, want %d", len(entries), len(want))
	}
	for i, w := range want {
		if entries[i].Message != w {
			t.Errorf("entry %d = %q, want %q", i, entries[i].Message, w)
		}
	}

	joined := entries[1].ContextMap()
	if joined["player"] != "p9" || joined["server"] != "Alpha" {
		t.Fatalf("player_joined fields = %v", joined)
	}
	if entries[3].Level != zapcore.ErrorLevel {
		t.Fatalf("upstream_error level = %v", entries[3].Level)
	}
}

// counterValue reads one series from the default registry; zero when absent.
func counterValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue series
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestRegisterAll_CountsDisconnects(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	hub := events.NewHub()
	RegisterAll(hub, zap.New(core))

	labels := map[string]string{"code": "4001"}
	before := counterValue(t, "feedwatch_connection_closed_total", labels)
	hub.Emit(&events.Disconnected{When: time.Now(), Attempt: 3, Code: 4001, Reason: "bye", RetryIn: 5 * time.Second})

	if got := counterValue(t, "feedwatch_connection_closed_total", labels); got != before+1 {
		t.Fatalf("closed{code=4001} = %v, want %v", got, before+1)
	}
	if logs.Len() != 0 {
		t.Fatalf("disconnect reporter should not log, got %d entries", logs.Len())
	}
}

func TestRegisterAll_SubscriptionElapsed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	hub := events.NewHub()
	RegisterAll(hub, zap.New(core))

	hub.Emit(&events.SubscriptionActive{Attempt: 1, CorrelationID: "cid", Servers: 1, Elapsed: 250 * time.Millisecond})

	entries := logs.FilterMessage("subscription_active").All()
	if len(entries) != 1 {
		t.Fatalf("got %d subscription_active entries", len(entries))
	}
	if got := entries[0].ContextMap()["elapsed"]; got != 250*time.Millisecond {
		t.Fatalf("elapsed = %v (%T)", got, got)
	}
}

type fakePublisher struct {
	mu   sync.Mutex
	got  []*redisstream.Message
	err  error
	done chan struct{}
}

func (f *fakePublisher) Publish(_ context.Context, m *redisstream.Message) error {
	f.mu.Lock()
	f.got = append(f.got, m)
	f.mu.Unlock()
	f.done <- struct{}{}
	return f.err
}

func TestStreamSink_PublishesJoins(t *testing.T) {
	pub := &fakePublisher{done: make(chan struct{}, 4)}
	sink := NewStreamSink(pub, 4, time.Second, zap.NewNop())
	hub := events.NewHub()
	sink.Register(hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sink.Run(ctx) }()

	hub.Emit(&events.PlayerJoined{When: time.Now(), PlayerID: "p1", ServerID: "s1", ServerName: "Alpha"})

	select {
	case <-pub.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish not invoked")
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.got) != 1 || pub.got[0].PlayerID != "p1" || pub.got[0].Type != string(events.EventPlayerJoined) {
		t.Fatalf("published = %+v", pub.got)
	}
}

func TestStreamSink_ErrorDoesNotStop(t *testing.T) {
	pub := &fakePublisher{done: make(chan struct{}, 4), err: errors.New("redis down")}
	sink := NewStreamSink(pub, 4, time.Second, zap.NewNop())
	hub := events.NewHub()
	sink.Register(hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sink.Run(ctx) }()

	for i := 0; i < 2; i++ {
		hub.Emit(&events.PlayerJoined{PlayerID: "p"})
		select {
		case <-pub.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("publish %d not invoked", i)
		}
	}
}

func TestStreamSink_DropsWhenFull(t *testing.T) {
	pub := &fakePublisher{done: make(chan struct{}, 4)}
	sink := NewStreamSink(pub, 1, time.Second, zap.NewNop())

	labels := map[string]string{"sink": "redis", "reason": "dropped"}
	before := counterValue(t, "feedwatch_sink_errors_total", labels)

	sink.enqueue(&redisstream.Message{PlayerID: "a"})
	sink.enqueue(&redisstream.Message{PlayerID: "b"})

	if len(sink.out) != 1 {
		t.Fatalf("buffer len = %d, want 1", len(sink.out))
	}
	if got := counterValue(t, "feedwatch_sink_errors_total", labels); got != before+1 {
		t.Fatalf("dropped = %v, want %v", got, before+1)
	}
}
