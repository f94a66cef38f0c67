package protocol

import "github.com/google/uuid"

// NewCorrelationID returns a fresh time-based id for one connection attempt.
func NewCorrelationID() string {
	id, err := uuid.NewUUID()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// MessageFactory builds the control frames of one handshake. Every frame it creates
// carries the same correlation id.
type MessageFactory struct {
	correlationID string
}

func NewMessageFactory(correlationID string) *MessageFactory {
	return &MessageFactory{correlationID: correlationID}
}

func (f *MessageFactory) CorrelationID() string { return f.correlationID }

// CreateAuthMessage carries the access token as a bare JSON string.
func (f *MessageFactory) CreateAuthMessage(token string) (*Envelope, error) {
	return NewEnvelope(f.correlationID, MsgAuth, token)
}

func (f *MessageFactory) CreateFilterMessage() (*Envelope, error) {
	return NewEnvelope(f.correlationID, MsgFilter, AddPlayerFilter())
}

// CreateJoinMessage joins the activity channel of every given server.
func (f *MessageFactory) CreateJoinMessage(serverIDs []string) (*Envelope, error) {
	return NewEnvelope(f.correlationID, MsgJoin, ActivityChannels(serverIDs))
}
