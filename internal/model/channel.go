package model

import (
	"sort"
	"strings"

	"github.com/oreeke/twipsybot/internal/constants"
	"github.com/oreeke/twipsybot/internal/jsonutil"
)

// ChannelSpec names a streaming channel to subscribe, optionally with
// connection parameters (e.g. antennaId for antenna channels).
type ChannelSpec struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params,omitempty"`
}

// Channel is a logical multiplexed sub-stream over the streaming socket.
// Identity for subscription purposes is (Name, Params); ID is minted locally
// and echoed back by the server on inbound frames.
type Channel struct {
	ID     string
	Name   string
	Params map[string]any
}

// Key returns a stable identity string for (name, params), with params
// rendered in sorted key order.
func (c *Channel) Key() string {
	return ChannelKey(c.Name, c.Params)
}

// ChannelKey builds the subscription identity string for a channel name and
// parameter map.
func ChannelKey(name string, params map[string]any) string {
	if len(params) == 0 {
		return name
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(jsonutil.StringFromAny(params[k]))
	}
	return b.String()
}

// noteChannels are the channels whose events carry notes.
var noteChannels = map[string]bool{
	constants.ChannelHomeTimeline:   true,
	constants.ChannelLocalTimeline:  true,
	constants.ChannelHybridTimeline: true,
	constants.ChannelGlobalTimeline: true,
	constants.ChannelAntenna:        true,
}

// chatChannels are the per-conversation chat channels.
var chatChannels = map[string]bool{
	constants.ChannelChatUser: true,
}

// IsNoteChannel reports whether the named channel delivers notes.
func IsNoteChannel(name string) bool {
	return noteChannels[name]
}

// IsChatChannel reports whether the named channel delivers chat messages.
func IsChatChannel(name string) bool {
	return chatChannels[name]
}

// LooksLikeNote reports whether a payload without an explicit event type is
// structurally a note: string id, createdAt, userId, and a user object.
func LooksLikeNote(data map[string]any) bool {
	if data == nil {
		return false
	}
	return jsonutil.StringFromMap(data, "id") != "" &&
		jsonutil.StringFromMap(data, "createdAt") != "" &&
		jsonutil.StringFromMap(data, "userId") != "" &&
		jsonutil.MapFromMap(data, "user") != nil
}
