package redisstream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Bus appends feed notifications to a redis stream.
type Bus struct {
	cli    *redis.Client
	stream string
	maxLen int64
}

type Message struct {
	Type       string    `json:"type"`
	When       time.Time `json:"when"`
	PlayerID   string    `json:"player_id"`
	ServerID   string    `json:"server_id"`
	ServerName string    `json:"server_name,omitempty"`
}

// New connects lazily; the first command dials. maxLen caps the stream approximately,
// 0 leaves it unbounded.
func New(addr string, db int, stream string, maxLen int64) *Bus {
	cli := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	return &Bus{cli: cli, stream: stream, maxLen: maxLen}
}

func (b *Bus) Stream() string { return b.stream }

func (b *Bus) Ping(ctx context.Context) error {
	return b.cli.Ping(ctx).Err()
}

func (b *Bus) Publish(ctx context.Context, m *Message) error {
	args, err := b.addArgs(m)
	if err != nil {
		return err
	}
	return b.cli.XAdd(ctx, args).Err()
}

func (b *Bus) addArgs(m *Message) (*redis.XAddArgs, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode stream message: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]any{"type": m.Type, "data": payload},
	}
	if b.maxLen > 0 {
		args.MaxLen = b.maxLen
		args.Approx = true
	}
	return args, nil
}

func (b *Bus) Close() error { return b.cli.Close() }
