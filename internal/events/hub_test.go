package events

import (
	"testing"
	"time"
)

func TestSubscribeEmit(t *testing.T) {
	hub := NewHub()
	var got []string
	hub.Subscribe(EventPlayerJoined, func(e Event) {
		got = append(got, "first:"+e.(*PlayerJoined).PlayerID)
	})
	hub.Subscribe(EventPlayerJoined, func(e Event) {
		got = append(got, "second:"+e.(*PlayerJoined).PlayerID)
	})
	hub.Subscribe(EventUpstreamError, func(e Event) {
		t.Fatalf("unexpected delivery of %s", e.Type())
	})

	hub.Emit(&PlayerJoined{When: time.Now(), PlayerID: "p1"})

	if len(got) != 2 || got[0] != "first:p1" || got[1] != "second:p1" {
		t.Fatalf("delivery order = %v", got)
	}
}

func TestSubscribeCancelable(t *testing.T) {
	hub := NewHub()
	calls := 0
	cancel := hub.SubscribeCancelable(EventDisconnected, func(Event) { calls++ })

	hub.Emit(&Disconnected{Code: 1006})
	cancel()
	hub.Emit(&Disconnected{Code: 1006})

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestEmitRecoversPanics(t *testing.T) {
	hub := NewHub()
	reached := false
	hub.Subscribe(EventUpstreamError, func(Event) { panic("boom") })
	hub.Subscribe(EventUpstreamError, func(Event) { reached = true })

	hub.Emit(&UpstreamError{Payload: []byte(`"x"`)})

	if !reached {
		t.Fatalf("second handler not invoked after panic")
	}
}
