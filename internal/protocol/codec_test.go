package protocol

import (
	"errors"
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
		wantT   MessageType
	}{
		{"ack", `{"i":"a","t":"ack","p":{}}`, nil, MsgAck},
		{"activity", `{"t":"ACTIVITY","p":{"relationships":{}}}`, nil, MsgActivity},
		{"leading whitespace", "  \n{\"t\":\"error\",\"p\":\"bad\"}", nil, MsgError},
		{"no type", `{"p":1}`, nil, ""},
		{"empty", ``, ErrEmptyFrame, ""},
		{"blank", "  \t", ErrEmptyFrame, ""},
		{"null", `null`, ErrEmptyFrame, ""},
		{"array", `[1,2]`, ErrMalformedFrame, ""},
		{"string", `"ack"`, ErrMalformedFrame, ""},
		{"truncated", `{"t":"ack"`, ErrMalformedFrame, ""},
		{"numeric id", `{"i":1,"t":"ack","p":{}}`, nil, MsgAck},
		{"null id", `{"i":null,"t":"ack"}`, nil, MsgAck},
		{"numeric type", `{"t":5}`, nil, "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Decode([]byte(tt.raw))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if env.T != tt.wantT {
				t.Fatalf("type = %q, want %q", env.T, tt.wantT)
			}
		})
	}
}

func TestDecode_NonStringID(t *testing.T) {
	env, err := Decode([]byte(`{"i":42,"t":"ack","p":{}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.I != "42" {
		t.Fatalf("id = %q, want raw text 42", env.I)
	}
	if string(env.P) != "{}" {
		t.Fatalf("payload = %s", env.P)
	}
}

func TestEncode(t *testing.T) {
	if _, err := Encode(nil); err == nil {
		t.Fatalf("expected error for nil envelope")
	}
	if _, err := Encode(&Envelope{I: "x"}); err == nil {
		t.Fatalf("expected error for missing type")
	}

	env, err := NewEnvelope("cid", MsgJoin, []string{"server:activity:1"})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	raw, err := Encode(env)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"i":"cid","t":"join","p":["server:activity:1"]}`
	if string(raw) != want {
		t.Fatalf("got %s, want %s", raw, want)
	}
	if strings.Contains(string(raw), "\n") {
		t.Fatalf("frame should not contain a newline")
	}
}
