package model

import (
	"fmt"

	"github.com/oreeke/twipsybot/internal/jsonutil"
)

// EventType is the canonical event category delivered to registered handlers.
type EventType string

// Canonical event types. Every wire sub-type the engine understands is
// normalized onto one of these four.
const (
	// EventMention covers "mention" and "reply" on the main channel.
	EventMention EventType = "mention"
	// EventMessage covers direct chat messages, both the main-channel
	// "newChatMessage" shape and the per-conversation "message" shape.
	EventMessage EventType = "message"
	// EventNotification covers generic notifications on the main channel.
	EventNotification EventType = "notification"
	// EventNote covers notes arriving on timeline and antenna channels.
	EventNote EventType = "note"
)

// Event is a normalized streaming event.
type Event struct {
	// Type is the canonical event category.
	Type EventType `json:"type"`
	// ID is the wire event id, or empty when the wire carried none.
	ID string `json:"id,omitempty"`
	// ChannelName is the name of the channel the event arrived on.
	ChannelName string `json:"channelName"`
	// ChannelID is the local id of the channel the event arrived on.
	ChannelID string `json:"channelId"`
	// Body is the normalized payload.
	Body map[string]any `json:"body"`
}

// Note returns the inner note payload for mention and note events, or nil.
func (e *Event) Note() map[string]any {
	if e == nil || e.Body == nil {
		return nil
	}
	if note := jsonutil.MapFromMap(e.Body, "note"); note != nil {
		return note
	}
	if e.Type == EventNote {
		return e.Body
	}
	return nil
}

// UserID returns the id of the user the event originated from, if present.
func (e *Event) UserID() string {
	if e == nil || e.Body == nil {
		return ""
	}
	if id := jsonutil.StringFromMap(e.Body, "fromUserId"); id != "" {
		return id
	}
	if note := e.Note(); note != nil {
		return jsonutil.StringFromMap(note, "userId")
	}
	return jsonutil.StringFromMap(e.Body, "userId")
}

// DedupKey derives the composite deduplication key for a wire event type
// and id. Events without an id return an empty key and skip deduplication.
// Wire sub-types that normalize onto the same canonical type share one key
// namespace; in particular the two wire shapes of a direct chat message
// ("newChatMessage" on main, "message" on a chatUser channel) cannot be
// delivered twice.
func DedupKey(wireType, id string) string {
	if id == "" {
		return ""
	}
	switch wireType {
	case "":
		return id
	case "newChatMessage", string(EventMessage):
		return "chatMessage:" + id
	case "mention", "reply":
		return "mention:" + id
	case "notification", "unreadNotification":
		return "notification:" + id
	default:
		return fmt.Sprintf("%s:%s", wireType, id)
	}
}
