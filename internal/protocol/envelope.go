package protocol

import "encoding/json"

// MessageType is the frame discriminator carried in the "t" field.
type MessageType string

const (
	MsgAuth     MessageType = "auth"
	MsgFilter   MessageType = "filter"
	MsgJoin     MessageType = "join"
	MsgAck      MessageType = "ack"
	MsgError    MessageType = "error"
	MsgActivity MessageType = "ACTIVITY"
)

// Envelope is one frame on the activity feed.
//
//	{"i": "<correlation id>", "t": "<type>", "p": <payload>}
//
// Outbound control frames always carry I. Inbound frames may omit it.
type Envelope struct {
	I string          `json:"i,omitempty"`
	T MessageType     `json:"t"`
	P json.RawMessage `json:"p,omitempty"`
}

// FilterPayload selects which activity the feed pushes after join.
type FilterPayload struct {
	Type    string     `json:"type"`
	Channel string     `json:"channel"`
	Filter  FilterSpec `json:"filter"`
}

type FilterSpec struct {
	TagTypeMode string              `json:"tagTypeMode"`
	Tags        map[string][]string `json:"tags"`
	Types       TypeFilter          `json:"types"`
}

type TypeFilter struct {
	Whitelist []string `json:"whitelist"`
}

const (
	ActivityChannelAll  = "*"
	TagTypeModeAnd      = "and"
	EventAddPlayer      = "event:addPlayer"
	activityChannelTmpl = "server:activity:"
)

// AddPlayerFilter is the filter sent during the handshake: every channel, add-player
// events only, tags unconstrained.
func AddPlayerFilter() FilterPayload {
	return FilterPayload{
		Type:    string(MsgActivity),
		Channel: ActivityChannelAll,
		Filter: FilterSpec{
			TagTypeMode: TagTypeModeAnd,
			Tags:        map[string][]string{},
			Types:       TypeFilter{Whitelist: []string{EventAddPlayer}},
		},
	}
}

// ActivityChannel names the activity channel of one server.
func ActivityChannel(serverID string) string {
	return activityChannelTmpl + serverID
}

// ActivityChannels maps server ids to channel names, preserving order. The result is
// never nil so it always encodes as a JSON array.
func ActivityChannels(serverIDs []string) []string {
	out := make([]string, 0, len(serverIDs))
	for _, id := range serverIDs {
		out = append(out, ActivityChannel(id))
	}
	return out
}
