package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hongjun500/feedwatch/internal/directory"
	"github.com/hongjun500/feedwatch/internal/protocol"
	"github.com/hongjun500/feedwatch/internal/transport"
)

type fakeConn struct {
	mu      sync.Mutex
	sent    []*protocol.Envelope
	sendErr error
	closed  bool
	events  chan transport.Event
}

func newFakeConn() *fakeConn {
	return &fakeConn{events: make(chan transport.Event, 16)}
}

func (c *fakeConn) Send(e *protocol.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, e)
	return nil
}

func (c *fakeConn) Events() <-chan transport.Event { return c.events }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) Sent() []*protocol.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*protocol.Envelope(nil), c.sent...)
}

func (c *fakeConn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) frame(raw string) {
	c.events <- transport.Event{Kind: transport.EventFrame, Data: []byte(raw)}
}

func (c *fakeConn) closeWith(code int) {
	c.events <- transport.Event{Kind: transport.EventClosed, Code: code}
}

// fakeDialer hands out the queued conns in order; once they run out it fails.
type fakeDialer struct {
	conns  chan *fakeConn
	dialed chan *fakeConn
}

func newFakeDialer(conns ...*fakeConn) *fakeDialer {
	d := &fakeDialer{
		conns:  make(chan *fakeConn, len(conns)+8),
		dialed: make(chan *fakeConn, len(conns)+8),
	}
	for _, c := range conns {
		d.conns <- c
	}
	return d
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (transport.Conn, error) {
	select {
	case c := <-d.conns:
		d.dialed <- c
		return c, nil
	default:
		return nil, errors.New("no route to feed")
	}
}

type fakeDirectory struct {
	mu    sync.Mutex
	snaps []directory.Snapshot
	err   error
	calls int
}

func (f *fakeDirectory) FetchEligible(ctx context.Context, token string) (directory.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return directory.Snapshot{}, f.err
	}
	if len(f.snaps) == 0 {
		return directory.Snapshot{}, nil
	}
	s := f.snaps[0]
	if len(f.snaps) > 1 {
		f.snaps = f.snaps[1:]
	}
	return s, nil
}

func (f *fakeDirectory) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeTimer replaces time.After: every requested delay is recorded and fires only
// when the test releases it.
type fakeTimer struct {
	delays chan time.Duration
	fire   chan time.Time
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{delays: make(chan time.Duration, 8), fire: make(chan time.Time)}
}

func (f *fakeTimer) After(d time.Duration) <-chan time.Time {
	f.delays <- d
	return f.fire
}

func servers(ids ...string) directory.Snapshot {
	rs := make([]directory.Resource, 0, len(ids))
	for _, id := range ids {
		rs = append(rs, directory.Resource{ID: id, Name: "Server " + id, RconActive: true})
	}
	return directory.NewSnapshot(rs)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func activityFrame(player, server string) string {
	return `{"t":"ACTIVITY","p":{"relationships":{` +
		`"players":{"data":[{"type":"player","id":"` + player + `"}]},` +
		`"servers":{"data":[{"type":"server","id":"` + server + `"}]}}}}`
}
