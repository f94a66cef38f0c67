package redisstream

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAddArgs(t *testing.T) {
	b := New("127.0.0.1:0", 0, "feedwatch:joins", 1000)
	defer b.Close()

	when := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	args, err := b.addArgs(&Message{Type: "player.joined", When: when, PlayerID: "p1", ServerID: "s1", ServerName: "Alpha"})
	if err != nil {
		t.Fatalf("addArgs: %v", err)
	}
	if args.Stream != "feedwatch:joins" || args.MaxLen != 1000 || !args.Approx {
		t.Fatalf("unexpected args %+v", args)
	}

	values := args.Values.(map[string]any)
	if values["type"] != "player.joined" {
		t.Fatalf("type value = %v", values["type"])
	}
	var m Message
	if err := json.Unmarshal(values["data"].([]byte), &m); err != nil {
		t.Fatalf("data: %v", err)
	}
	if m.PlayerID != "p1" || m.ServerName != "Alpha" || !m.When.Equal(when) {
		t.Fatalf("decoded message = %+v", m)
	}
}

func TestAddArgs_Unbounded(t *testing.T) {
	b := New("127.0.0.1:0", 0, "s", 0)
	defer b.Close()

	args, err := b.addArgs(&Message{Type: "player.joined"})
	if err != nil {
		t.Fatalf("addArgs: %v", err)
	}
	if args.MaxLen != 0 || args.Approx {
		t.Fatalf("stream should be unbounded: %+v", args)
	}
}
