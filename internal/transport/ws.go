package transport

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hongjun500/feedwatch/internal/protocol"
	"github.com/hongjun500/feedwatch/pkg/logger"
	"go.uber.org/zap"
)

// WSDialer dials the feed over websocket.
type WSDialer struct {
	Opt    Options
	Header http.Header
	Log    *zap.Logger
}

func NewWSDialer(opt Options, log *zap.Logger) *WSDialer {
	return &WSDialer{Opt: opt, Log: log}
}

func (d *WSDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.Opt.HandshakeTimeout,
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
	}
	conn, resp, err := dialer.DialContext(ctx, url, d.Header)
	if err != nil {
		detail := url
		if resp != nil {
			detail = url + " " + resp.Status
		}
		return nil, wrapTpError(ErrDialFailed, detail, err)
	}
	return newWSConn(conn, d.Opt, logger.Or(d.Log)), nil
}

// wsConn implements Conn on a gorilla websocket connection.
type wsConn struct {
	conn      *websocket.Conn
	opt       Options
	log       *zap.Logger
	events    chan Event
	writeMu   sync.Mutex
	closeOnce sync.Once
	closeChan chan struct{}
}

func newWSConn(conn *websocket.Conn, opt Options, log *zap.Logger) *wsConn {
	buf := opt.EventBuffer
	if buf <= 0 {
		buf = 64
	}
	c := &wsConn{
		conn:      conn,
		opt:       opt,
		log:       log,
		events:    make(chan Event, buf),
		closeChan: make(chan struct{}),
	}
	go c.readLoop()
	if opt.PingInterval > 0 {
		go c.pingLoop()
	}
	return c
}

func (c *wsConn) Events() <-chan Event { return c.events }

func (c *wsConn) Send(e *protocol.Envelope) error {
	data, err := protocol.Encode(e)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.closeChan:
		return ErrConnClosed
	default:
	}
	if c.opt.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.opt.WriteTimeout))
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return wrapTpError(ErrWriteFailed, string(e.T), err)
	}
	return nil
}

// Close sends a normal close frame and tears the connection down. Events pending
// delivery at that point are discarded.
func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeChan)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = c.conn.Close()
	})
	return err
}

func (c *wsConn) readLoop() {
	defer close(c.events)

	if c.opt.MaxFrameSize > 0 {
		c.conn.SetReadLimit(c.opt.MaxFrameSize)
	}
	c.extendReadDeadline()
	c.conn.SetPongHandler(func(string) error {
		c.extendReadDeadline()
		return nil
	})

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			c.pushClosed(err)
			return
		}
		c.extendReadDeadline()
		if mt != websocket.TextMessage {
			continue
		}
		if !c.push(Event{Kind: EventFrame, Data: data}) {
			return
		}
	}
}

func (c *wsConn) pushClosed(err error) {
	code, reason := websocket.CloseAbnormalClosure, ""
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		code, reason = ce.Code, ce.Text
	} else if !c.push(Event{Kind: EventError, Err: err}) {
		return
	}
	c.push(Event{Kind: EventClosed, Code: code, Reason: reason, Err: err})
}

// push hands ev to the consumer unless the connection was closed locally.
func (c *wsConn) push(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.closeChan:
		return false
	}
}

func (c *wsConn) extendReadDeadline() {
	if c.opt.ReadTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.opt.ReadTimeout))
	}
}

func (c *wsConn) pingLoop() {
	ticker := time.NewTicker(c.opt.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				c.log.Sugar().Debugw("ws_ping_error", "err", err)
			}
		case <-c.closeChan:
			return
		}
	}
}
