// Package streaming implements the Misskey streaming WebSocket protocol:
// a single multiplexed connection carrying many logical channels, with
// automatic reconnection and exponential backoff, event normalization and
// deduplication, a bounded dispatch queue with a fixed worker pool, and
// on-demand per-conversation chat channels.
package streaming

import "encoding/json"

// Control frame types exchanged with the streaming server.
const (
	// TypeConnect subscribes a channel.
	TypeConnect = "connect"
	// TypeDisconnect unsubscribes a channel.
	TypeDisconnect = "disconnect"
	// TypeChannelSend carries a client message into a subscribed channel.
	TypeChannelSend = "ch"
	// TypeChannel is the server-pushed envelope for channel events.
	TypeChannel = "channel"
)

// Frame is an outbound message to the streaming server.
type Frame struct {
	Type string `json:"type"`
	Body any    `json:"body"`
}

// ConnectBody is the body of a channel subscribe frame.
type ConnectBody struct {
	Channel string         `json:"channel"`
	ID      string         `json:"id"`
	Params  map[string]any `json:"params"`
}

// DisconnectBody is the body of a channel unsubscribe frame.
type DisconnectBody struct {
	ID string `json:"id"`
}

// ChannelSendBody is the body of a client-to-channel message frame.
type ChannelSendBody struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Body map[string]any `json:"body"`
}

// InboundFrame is a message received from the streaming server. The body
// stays raw until the frame type is known: non-"channel" frames may carry
// any body shape and are classified before decoding.
type InboundFrame struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"body"`
}

// ChannelEventBody is the payload within a "channel"-type frame: the local
// channel id, the wire event sub-type, and the event payload.
type ChannelEventBody struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Body map[string]any `json:"body"`
}

func subscribeFrame(channel, id string, params map[string]any) Frame {
	if params == nil {
		params = map[string]any{}
	}
	return Frame{Type: TypeConnect, Body: ConnectBody{Channel: channel, ID: id, Params: params}}
}

func unsubscribeFrame(id string) Frame {
	return Frame{Type: TypeDisconnect, Body: DisconnectBody{ID: id}}
}

func channelSendFrame(id, eventType string, body map[string]any) Frame {
	if body == nil {
		body = map[string]any{}
	}
	return Frame{Type: TypeChannelSend, Body: ChannelSendBody{ID: id, Type: eventType, Body: body}}
}
