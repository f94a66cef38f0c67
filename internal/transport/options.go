package transport

import "time"

// Options configures the websocket client.
type Options struct {
	HandshakeTimeout time.Duration // websocket opening handshake
	ReadTimeout      time.Duration // silence allowed before the connection is considered dead; 0 to disable
	WriteTimeout     time.Duration // per-write deadline; 0 to disable
	PingInterval     time.Duration // keepalive ping period; 0 to disable
	MaxFrameSize     int64         // inbound frame limit in bytes
	EventBuffer      int
}

func DefaultOptions() Options {
	return Options{
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
		PingInterval:     30 * time.Second,
		MaxFrameSize:     1 << 20,
		EventBuffer:      64,
	}
}
