package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrEmptyFrame marks a frame that decoded to nothing (empty body or JSON null).
	ErrEmptyFrame = errors.New("protocol: empty frame")
	// ErrMalformedFrame marks a frame that is not a JSON object of the expected shape.
	ErrMalformedFrame = errors.New("protocol: malformed frame")
)

// NewEnvelope builds an outbound frame, JSON-encoding payload into P.
func NewEnvelope(id string, t MessageType, payload any) (*Envelope, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return &Envelope{I: id, T: t, P: p}, nil
}

// Encode marshals e as a single JSON text frame.
func Encode(e *Envelope) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("encode: envelope is nil")
	}
	if e.T == "" {
		return nil, fmt.Errorf("encode: envelope missing required field 't'")
	}
	return json.Marshal(e)
}

// inbound is the loose shape of a received frame. The feed does not promise string
// values for "i" or "t", so both are decoded raw.
type inbound struct {
	I json.RawMessage `json:"i"`
	T json.RawMessage `json:"t"`
	P json.RawMessage `json:"p"`
}

// Decode parses one inbound frame. A frame without a type decodes successfully and
// is left to the router's default handler. A non-string "i" or "t" keeps its JSON
// text.
func Decode(raw []byte) (*Envelope, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrEmptyFrame
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: payload not object", ErrMalformedFrame)
	}
	var in inbound
	if err := json.Unmarshal(trimmed, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return &Envelope{I: rawText(in.I), T: MessageType(rawText(in.T)), P: in.P}, nil
}

func rawText(r json.RawMessage) string {
	if len(r) == 0 || bytes.Equal(r, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(r, &s); err == nil {
		return s
	}
	return string(r)
}
